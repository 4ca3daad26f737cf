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
	"sync"

	"k8c.io/discovery-agent/internal/pkg/informer"
	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"

	"k8s.io/apimachinery/pkg/util/sets"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// fakeInformer serves a fixed listing and records changes in a real
// ChangeTracker.
type fakeInformer struct {
	*informer.ChangeTracker
	listed []ctrlruntimeclient.Object
}

func newFakeInformer(listed ...ctrlruntimeclient.Object) *fakeInformer {
	return &fakeInformer{ChangeTracker: informer.NewChangeTracker(), listed: listed}
}

func (f *fakeInformer) ListCurrent(context.Context) []ctrlruntimeclient.Object {
	return f.listed
}

func (f *fakeInformer) Run(ctx context.Context) {
	<-ctx.Done()
}

// fakeCatalog is an in-memory CatalogClient. Stored resources get the id
// from ids, or "cat-<key>".
type fakeCatalog struct {
	mu sync.Mutex

	batchSize int
	ids       map[string]string
	failKeys  sets.Set[string]
	deleteErr error

	entities []catalogv1.Entity
	listErr  error

	clustersByID map[string]*catalogv1.Entity
	clusterByKey *catalogv1.Cluster
	byIDCalls    int
	byKeyCalls   int

	upserts [][]catalogv1.Resource
	deletes [][]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		batchSize: 50,
		ids:       map[string]string{},
		failKeys:  sets.New[string](),
	}
}

func (f *fakeCatalog) Upsert(_ context.Context, resources []catalogv1.Resource) *catalogv1.UpsertResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.upserts = append(f.upserts, append([]catalogv1.Resource(nil), resources...))

	result := &catalogv1.UpsertResult{}
	for _, r := range resources {
		if f.failKeys.Has(r.ProviderResourceKey) {
			result.Failures++
			result.Failed = append(result.Failed, catalogv1.FailedResource{ProviderResourceKey: r.ProviderResourceKey, Status: 400})
			continue
		}

		id, ok := f.ids[r.ProviderResourceKey]
		if !ok {
			id = "cat-" + r.ProviderResourceKey
		}
		result.Success++
		result.Items = append(result.Items, catalogv1.Entity{ID: id, ProviderResourceKey: r.ProviderResourceKey})
	}
	return result
}

func (f *fakeCatalog) DeleteBatch(_ context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes = append(f.deletes, ids)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return len(ids), nil
}

func (f *fakeCatalog) Delete(ctx context.Context, ids []string) int {
	n, _ := f.DeleteBatch(ctx, ids)
	return n
}

func (f *fakeCatalog) ListAll(context.Context, string, []catalogv1.ResourceType) ([]catalogv1.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.entities, f.listErr
}

func (f *fakeCatalog) GetClusterByID(_ context.Context, id string) (*catalogv1.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byIDCalls++
	return f.clustersByID[id], nil
}

func (f *fakeCatalog) GetClusterByExternalKey(context.Context, string, string) (*catalogv1.Cluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byKeyCalls++
	return f.clusterByKey, nil
}

func (f *fakeCatalog) BatchSize() int {
	return f.batchSize
}

func (f *fakeCatalog) Upserts() [][]catalogv1.Resource {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]catalogv1.Resource(nil), f.upserts...)
}

func (f *fakeCatalog) Deletes() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]string(nil), f.deletes...)
}
