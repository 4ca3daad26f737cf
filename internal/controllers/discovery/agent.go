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
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"

	kubeutil "k8c.io/discovery-agent/internal/pkg/kubernetes"
	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"
)

const (
	kindNamespace = "namespace"
	kindPod       = "pod"
	kindStale     = "stale"
)

// Start runs the initial synchronization and then one synchronization cycle
// per resync interval until ctx is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.log.Info("Starting initial data synchronization")
	a.bootstrap(ctx)
	a.ready.Store(true)
	a.log.Info("Initial data synchronization is completed")

	a.log.Infow("Cluster state synchronization is scheduled", "interval", a.cfg.ResyncInterval)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Stopping cluster state synchronization")
			return nil
		case <-a.clock.After(a.cfg.ResyncInterval):
		}

		a.SyncOnce(ctx)
	}
}

func (a *Agent) bootstrap(ctx context.Context) {
	if a.clusterLinkingEnabled() {
		a.resolveCluster(ctx)
	} else {
		a.log.Warn("Cluster resource key is not provided, relations between namespaces and the cluster are skipped")
	}

	namespaces := a.cfg.Namespaces.ListCurrent(ctx)
	storedNamespaces := a.catalogNamespaces(ctx, namespaces)
	a.retryFailed(a.cfg.Namespaces, namespaces, storedNamespaces)

	a.log.Debug("Watching namespaces")
	go a.cfg.Namespaces.Run(ctx)

	pods := a.cfg.Pods.ListCurrent(ctx)
	storedPods := a.catalogPods(ctx, pods)
	a.retryFailed(a.cfg.Pods, pods, storedPods)

	a.log.Debug("Watching pods")
	go a.cfg.Pods.Run(ctx)

	switch {
	case len(namespaces) == 0:
		a.log.Warn("No namespaces were listed, skipping the removal of stale catalog entries")
	case storedNamespaces.Len() < len(namespaces) || storedPods.Len() < len(pods):
		a.log.Warnw("Not every listed resource was stored, skipping the removal of stale catalog entries",
			"namespaces", len(namespaces), "storedNamespaces", storedNamespaces.Len(),
			"pods", len(pods), "storedPods", storedPods.Len(),
		)
	default:
		a.removeStaleResources(ctx)
	}

	a.completeCycle()
}

// retryFailed records every listed object that was not stored as pending,
// so the next cycle tries again.
func (a *Agent) retryFailed(inf Informer, listed []ctrlruntimeclient.Object, stored sets.Set[string]) {
	for _, obj := range listed {
		if !stored.Has(kubeutil.ResourceKey(obj)) {
			inf.RecordUpsert(obj)
		}
	}
}

// SyncOnce runs one synchronization cycle: cluster validation, then the
// namespace pass, then the pod pass.
func (a *Agent) SyncOnce(ctx context.Context) {
	a.log.Info("Synchronizing cluster state")

	if a.clusterLinkingEnabled() {
		a.resolveCluster(ctx)
	}

	a.syncNamespaces(ctx)
	a.syncPods(ctx)

	a.completeCycle()
	a.log.Info("Synchronizing cluster state is completed")
}

func (a *Agent) completeCycle() {
	a.metrics.SyncCycles.Inc()
	a.metrics.LastSyncTime.Set(float64(a.clock.Now().Unix()))
}

func (a *Agent) syncNamespaces(ctx context.Context) {
	inf := a.cfg.Namespaces
	inf.BeginDrain()
	defer inf.EndDrain()

	for _, key := range a.deleteByKeys(ctx, inf.PendingRemovals(), kindNamespace) {
		delete(a.ids, key)
		a.namespaces.remove(key)
		inf.AcknowledgeRemoval(key)
	}

	for _, key := range sets.List(a.catalogNamespaces(ctx, inf.PendingChanges())) {
		inf.AcknowledgeChange(key)
	}
}

func (a *Agent) syncPods(ctx context.Context) {
	inf := a.cfg.Pods
	inf.BeginDrain()
	defer inf.EndDrain()

	for _, key := range a.deleteByKeys(ctx, inf.PendingRemovals(), kindPod) {
		delete(a.ids, key)
		inf.AcknowledgeRemoval(key)
	}

	for _, key := range sets.List(a.catalogPods(ctx, inf.PendingChanges())) {
		inf.AcknowledgeChange(key)
	}
}

// catalogNamespaces updates the namespace index and upserts the namespaces.
// It returns the keys the catalog confirmed.
func (a *Agent) catalogNamespaces(ctx context.Context, namespaces []ctrlruntimeclient.Object) sets.Set[string] {
	if len(namespaces) == 0 {
		return sets.New[string]()
	}

	a.log.Debug("Creating namespace resources")

	resources := make([]catalogv1.Resource, 0, len(namespaces))
	for _, ns := range namespaces {
		resource, err := a.projectNamespace(ns)
		if err != nil {
			a.log.Errorw("Failed to project namespace", "key", kubeutil.ResourceKey(ns), "error", err)
			continue
		}

		a.namespaces.set(resource.Name, resource.ProviderResourceKey, resource.MetaTags, ns.GetLabels())
		resources = append(resources, resource)
	}

	return a.catalogResources(ctx, resources, kindNamespace)
}

// catalogPods upserts the pods, linking them to namespaces already known.
// It returns the keys the catalog confirmed.
func (a *Agent) catalogPods(ctx context.Context, pods []ctrlruntimeclient.Object) sets.Set[string] {
	if len(pods) == 0 {
		return sets.New[string]()
	}

	a.log.Debug("Creating pod resources")

	resources := make([]catalogv1.Resource, 0, len(pods))
	for _, pod := range pods {
		resource, err := a.projectPod(pod)
		if err != nil {
			a.log.Errorw("Failed to project pod", "key", kubeutil.ResourceKey(pod), "error", err)
			continue
		}
		resources = append(resources, resource)
	}

	return a.catalogResources(ctx, resources, kindPod)
}

func (a *Agent) catalogResources(ctx context.Context, resources []catalogv1.Resource, kind string) sets.Set[string] {
	stored := sets.New[string]()
	if len(resources) == 0 {
		return stored
	}

	a.log.Infow("Attempting to save resources", "kind", kind, "count", len(resources))

	result := a.cfg.Catalog.Upsert(ctx, resources)

	for _, item := range result.Items {
		if item.ProviderResourceKey == "" || item.ID == "" {
			continue
		}
		a.ids[item.ProviderResourceKey] = item.ID
		stored.Insert(item.ProviderResourceKey)
	}

	if result.Failures > 0 {
		failed := make([]string, 0, len(result.Failed))
		for _, f := range result.Failed {
			failed = append(failed, f.ProviderResourceKey)
		}
		a.log.Warnw("Failed to save resources", "kind", kind, "count", result.Failures, "keys", failed)
	}

	a.metrics.Upserts.WithLabelValues(kind, resultSuccess).Add(float64(stored.Len()))
	a.metrics.Upserts.WithLabelValues(kind, resultFailure).Add(float64(len(resources) - stored.Len()))

	a.log.Infow("Saved resources", "kind", kind, "count", stored.Len())
	return stored
}

// deleteByKeys deletes the catalog entities of the removed keys in batches
// and returns the keys that are gone. A key without a known catalog id is
// gone already; a key with one is gone once its batch was deleted.
func (a *Agent) deleteByKeys(ctx context.Context, keys []string, kind string) []string {
	if len(keys) == 0 {
		return nil
	}

	a.log.Infow("Attempting to remove resources", "kind", kind, "count", len(keys))

	var gone []string
	batchSize := a.cfg.Catalog.BatchSize()

	for start := 0; start < len(keys); start += batchSize {
		batch := keys[start:min(start+batchSize, len(keys))]

		var ids, cached []string
		for _, key := range batch {
			if id, ok := a.ids[key]; ok {
				ids = append(ids, id)
				cached = append(cached, key)
				continue
			}
			gone = append(gone, key)
		}

		if len(ids) == 0 {
			continue
		}

		deleted, err := a.cfg.Catalog.DeleteBatch(ctx, ids)
		if err != nil {
			a.log.Errorw("Unexpected error occurred while batch deleting resources",
				"operation", "deleteByKeys",
				"kind", kind,
				"ids", ids,
				"error", err,
			)
			continue
		}

		a.metrics.Deletes.WithLabelValues(kind).Add(float64(deleted))
		gone = append(gone, cached...)
	}

	a.log.Infow("Removed resources", "kind", kind, "count", len(gone))
	return gone
}

// removeStaleResources deletes the catalog entities of this account that
// were not stored during the initial synchronization.
func (a *Agent) removeStaleResources(ctx context.Context) {
	a.log.Info("Checking for stale resources to remove")

	entities, err := a.cfg.Catalog.ListAll(ctx, a.cfg.ProviderAccountID, catalogv1.AllResourceTypes)
	if err != nil {
		a.log.Errorw("Unexpected error occurred while fetching current resource ids",
			"operation", "removeStaleResources",
			"providerAccountId", a.cfg.ProviderAccountID,
			"error", err,
		)
		return
	}

	known := sets.New[string]()
	for _, id := range a.ids {
		known.Insert(id)
	}

	var stale []string
	for _, e := range entities {
		if !known.Has(e.ID) {
			stale = append(stale, e.ID)
		}
	}

	if len(stale) == 0 {
		a.log.Info("No stale resources found")
		return
	}

	a.log.Infow("Attempting to remove stale resources", "count", len(stale))

	started := a.clock.Now()
	deleted := a.cfg.Catalog.Delete(ctx, stale)
	a.metrics.Deletes.WithLabelValues(kindStale).Add(float64(deleted))

	a.log.Infow("Removed stale resources", "count", deleted, "took", a.clock.Since(started).Round(time.Millisecond))
}
