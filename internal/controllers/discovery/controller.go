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
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"

	"k8s.io/utils/clock"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/manager"
)

const (
	controllerName = "discovery-agent"
)

// Informer is the per-kind change feed the agent drains.
type Informer interface {
	ListCurrent(ctx context.Context) []ctrlruntimeclient.Object
	Run(ctx context.Context)

	RecordUpsert(obj ctrlruntimeclient.Object) bool

	BeginDrain()
	EndDrain()
	PendingChanges() []ctrlruntimeclient.Object
	PendingRemovals() []string
	AcknowledgeChange(key string)
	AcknowledgeRemoval(key string)
}

// CatalogClient is the subset of the catalog API the agent uses.
type CatalogClient interface {
	Upsert(ctx context.Context, resources []catalogv1.Resource) *catalogv1.UpsertResult
	DeleteBatch(ctx context.Context, ids []string) (int, error)
	Delete(ctx context.Context, ids []string) int
	ListAll(ctx context.Context, accountID string, resourceTypes []catalogv1.ResourceType) ([]catalogv1.Entity, error)
	GetClusterByID(ctx context.Context, id string) (*catalogv1.Entity, error)
	GetClusterByExternalKey(ctx context.Context, key, accountID string) (*catalogv1.Cluster, error)
	BatchSize() int
}

// AgentConfig holds the configuration of the discovery agent.
type AgentConfig struct {
	Log *zap.SugaredLogger

	Catalog    CatalogClient
	Namespaces Informer
	Pods       Informer

	// ResyncInterval is the pause between the end of one synchronization
	// cycle and the start of the next one.
	ResyncInterval time.Duration

	// ProviderAccountID is attached to every resource and scopes the
	// removal of stale catalog entries.
	ProviderAccountID string

	// ClusterResourceKey is the provider resource key of the cluster entity
	// in the catalog. When empty, resources are not linked to the cluster.
	ClusterResourceKey string

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Metrics defaults to unregistered collectors.
	Metrics *Metrics
}

func (c *AgentConfig) validate() error {
	if c.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}

	if c.Catalog == nil {
		return fmt.Errorf("catalog client cannot be nil")
	}

	if c.Namespaces == nil || c.Pods == nil {
		return fmt.Errorf("namespace and pod informers are required")
	}

	if c.ResyncInterval <= 0 {
		return fmt.Errorf("resync interval must be a positive duration")
	}

	if c.ProviderAccountID == "" {
		return fmt.Errorf("provider account id cannot be empty")
	}

	return nil
}

// Agent synchronizes namespaces and pods into the catalog. All catalog
// state below is owned by the goroutine running Start.
type Agent struct {
	cfg     *AgentConfig
	log     *zap.SugaredLogger
	clock   clock.Clock
	metrics *Metrics

	// ids maps resource keys to catalog ids.
	ids        map[string]string
	namespaces *namespaceIndex
	cluster    *catalogv1.Cluster

	ready atomic.Bool
}

var (
	_ manager.Runnable               = &Agent{}
	_ manager.LeaderElectionRunnable = &Agent{}
)

// NewAgent creates an Agent from a validated configuration.
func NewAgent(cfg *AgentConfig) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:        cfg,
		log:        cfg.Log,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		ids:        map[string]string{},
		namespaces: newNamespaceIndex(),
	}

	if a.clock == nil {
		a.clock = clock.RealClock{}
	}
	if a.metrics == nil {
		a.metrics = NewMetrics(nil)
	}

	return a, nil
}

// Add creates a new discovery agent and adds it to the Manager, together
// with a readiness check that passes once the initial synchronization
// completed.
func Add(mgr manager.Manager, cfg *AgentConfig) error {
	agent, err := NewAgent(cfg)
	if err != nil {
		return fmt.Errorf("failed to instantiate %s: %w", controllerName, err)
	}

	if err := mgr.Add(agent); err != nil {
		return fmt.Errorf("failed to add %s to manager: %w", controllerName, err)
	}

	return mgr.AddReadyzCheck(controllerName, agent.ReadyzCheck)
}

// NeedLeaderElection makes sure only one agent writes to the catalog.
func (a *Agent) NeedLeaderElection() bool {
	return true
}

// ReadyzCheck fails until the initial synchronization completed.
func (a *Agent) ReadyzCheck(_ *http.Request) error {
	if !a.ready.Load() {
		return errors.New("initial synchronization has not completed yet")
	}
	return nil
}

func (a *Agent) clusterLinkingEnabled() bool {
	return a.cfg.ClusterResourceKey != ""
}
