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

package main

import (
	"flag"

	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"k8c.io/discovery-agent/internal/controllers/discovery"
	"k8c.io/discovery-agent/internal/pkg/catalog"
	"k8c.io/discovery-agent/internal/pkg/config"
	"k8c.io/discovery-agent/internal/pkg/informer"
	dalog "k8c.io/discovery-agent/internal/pkg/log"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	ctrlruntimeconfig "sigs.k8s.io/controller-runtime/pkg/client/config"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	ctrlruntimelog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
)

var (
	scheme = runtime.NewScheme()
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

type flags struct {
	enableLeaderElection    bool
	leaderElectionNamespace string
	healthProbeAddress      string
	metricsAddress          string
}

func main() {
	var f flags
	logFlags := dalog.NewDefaultOptions()
	logFlags.AddPFlags(pflag.CommandLine)
	config.AddPFlags(pflag.CommandLine)

	pflag.BoolVar(&f.enableLeaderElection, "leader-elect", true, "Enable leader election, so only one agent writes to the catalog.")
	pflag.StringVar(&f.leaderElectionNamespace, "leader-election-namespace", "", "Namespace of the leader election lease. Defaults to the namespace the agent runs in.")
	pflag.StringVar(&f.healthProbeAddress, "health-probe-address", "127.0.0.1:8085", "The address on which the liveness check on /healthz and readiness check on /readyz will be available")
	pflag.StringVar(&f.metricsAddress, "metrics-address", "127.0.0.1:8080", "The address on which Prometheus metrics will be available under /metrics")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	if err := logFlags.Validate(); err != nil {
		dalog.NewDefault().Sugar().Fatalf("Invalid log options: %v", err)
	}

	rawLog := dalog.NewFromOptions(logFlags)
	l := rawLog.Sugar()
	ctrlruntimelog.SetLogger(zapr.NewLogger(rawLog.WithOptions(zap.AddCallerSkip(1))))

	cfg, err := config.Load(viper.New(), pflag.CommandLine, l.Named("config"))
	if err != nil {
		l.Fatalf("Failed to load configuration: %v", err)
	}

	restConfig := ctrlruntimeconfig.GetConfigOrDie()

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		l.Fatalf("Failed to create Kubernetes client: %v", err)
	}

	catalogOptions := catalog.NewDefaultOptions()
	catalogOptions.URL = cfg.CatalogURL
	catalogOptions.APIKey = cfg.CatalogAPIToken

	catalogClient, err := catalog.New(catalogOptions, rawLog.Sugar().Named("catalog"))
	if err != nil {
		l.Fatalf("Failed to create catalog client: %v", err)
	}

	options := manager.Options{
		Scheme:                  scheme,
		LeaderElection:          f.enableLeaderElection,
		LeaderElectionID:        "discovery-agent",
		LeaderElectionNamespace: f.leaderElectionNamespace,
		HealthProbeBindAddress:  f.healthProbeAddress,
		Metrics: metricsserver.Options{
			BindAddress: f.metricsAddress,
		},
	}

	mgr, err := manager.New(restConfig, options)
	if err != nil {
		l.Fatalf("Failed to create manager: %v", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		l.Fatalf("Failed to set up health check: %v", err)
	}

	informerLog := rawLog.Sugar().Named("informer")

	err = discovery.Add(mgr, &discovery.AgentConfig{
		Log:     rawLog.Sugar().Named("discovery"),
		Catalog: catalogClient,
		Namespaces: informer.New(informer.Config{
			Kind:   "namespace",
			Source: informer.NamespaceSource(clientset),
			Log:    informerLog,
		}),
		Pods: informer.New(informer.Config{
			Kind:   "pod",
			Source: informer.PodSource(clientset),
			Log:    informerLog,
		}),
		ResyncInterval:     cfg.ResyncInterval(),
		ProviderAccountID:  cfg.ProviderAccountID,
		ClusterResourceKey: cfg.ClusterResourceKey,
		Metrics:            discovery.NewMetrics(metrics.Registry),
	})
	if err != nil {
		l.Fatalf("Failed to add discovery agent: %v", err)
	}

	l.Infof("Starting manager, with a synchronization interval of %d hours", cfg.FrequencyHours)

	if err = mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		l.Fatalf("Failed to start manager: %v", err)
	}
}
