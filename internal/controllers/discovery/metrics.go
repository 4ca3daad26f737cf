/*
Copyright 2026 The Discovery Agent contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "discovery"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics are the Prometheus collectors of the agent.
type Metrics struct {
	SyncCycles   prometheus.Counter
	Upserts      *prometheus.CounterVec
	Deletes      *prometheus.CounterVec
	LastSyncTime prometheus.Gauge
}

// NewMetrics creates the agent collectors and registers them with reg
// unless it is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_cycles_total",
			Help:      "Number of completed synchronization cycles, including the initial one.",
		}),
		Upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_upserts_total",
			Help:      "Number of resources sent to the catalog, by kind and result.",
		}, []string{"kind", "result"}),
		Deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_deletes_total",
			Help:      "Number of catalog entities confirmed deleted, by kind.",
		}, []string{"kind"}),
		LastSyncTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last completed synchronization cycle.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.SyncCycles, m.Upserts, m.Deletes, m.LastSyncTime)
	}

	return m
}
