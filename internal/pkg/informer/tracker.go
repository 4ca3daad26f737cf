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

package informer

import (
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"

	kubeutil "k8c.io/discovery-agent/internal/pkg/kubernetes"
)

// changeSet holds resources waiting to be propagated to the catalog.
// A key is never both changed and removed; a removal wins until it is
// acknowledged.
type changeSet struct {
	changed map[string]ctrlruntimeclient.Object
	removed sets.Set[string]
}

func newChangeSet() *changeSet {
	return &changeSet{
		changed: map[string]ctrlruntimeclient.Object{},
		removed: sets.New[string](),
	}
}

func (c *changeSet) upsert(key string, obj ctrlruntimeclient.Object) bool {
	if c.removed.Has(key) {
		return false
	}
	if existing, ok := c.changed[key]; ok && existing.GetResourceVersion() == obj.GetResourceVersion() {
		return false
	}

	c.changed[key] = obj
	return true
}

func (c *changeSet) remove(key string) {
	delete(c.changed, key)
	c.removed.Insert(key)
}

// ChangeTracker is the pending-to-sync state of one resource kind.
//
// Writers record upserts and deletions as they are observed. A drain pass
// opens a window with BeginDrain; until EndDrain all writes land in a buffer,
// so the stable state read through PendingChanges and PendingRemovals only
// changes through the pass's own acknowledgements. EndDrain is the single
// point where buffered and stable state are merged.
type ChangeTracker struct {
	mu     sync.Mutex
	stable *changeSet
	buffer *changeSet
}

// NewChangeTracker returns an empty tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{stable: newChangeSet()}
}

// active must be called with mu held.
func (t *ChangeTracker) active() *changeSet {
	if t.buffer != nil {
		return t.buffer
	}
	return t.stable
}

// RecordUpsert records obj as changed. It is a no-op when a pending entry
// with the same resource version already exists, or when the key is pending
// removal.
func (t *ChangeTracker) RecordUpsert(obj ctrlruntimeclient.Object) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := kubeutil.ResourceKey(obj)
	if t.buffer != nil {
		if _, buffered := t.buffer.changed[key]; !buffered {
			if existing, ok := t.stable.changed[key]; ok && existing.GetResourceVersion() == obj.GetResourceVersion() {
				return false
			}
		}
	}

	return t.active().upsert(key, obj)
}

// RecordDelete records key as removed, discarding any pending change for it.
func (t *ChangeTracker) RecordDelete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active().remove(key)
}

// BeginDrain redirects subsequent writes into the buffer.
func (t *ChangeTracker) BeginDrain() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buffer == nil {
		t.buffer = newChangeSet()
	}
}

// draining reports whether a drain window is open.
func (t *ChangeTracker) draining() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.buffer != nil
}

// PendingChanges returns the stable changed resources ordered by key.
func (t *ChangeTracker) PendingChanges() []ctrlruntimeclient.Object {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.stable.changed))
	for k := range t.stable.changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	objs := make([]ctrlruntimeclient.Object, 0, len(keys))
	for _, k := range keys {
		objs = append(objs, t.stable.changed[k])
	}
	return objs
}

// PendingRemovals returns the stable removed keys in sorted order.
func (t *ChangeTracker) PendingRemovals() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return sets.List(t.stable.removed)
}

// AcknowledgeChange drops key from the stable changed resources.
func (t *ChangeTracker) AcknowledgeChange(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.stable.changed, key)
}

// AcknowledgeRemoval drops key from the stable removed keys.
func (t *ChangeTracker) AcknowledgeRemoval(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stable.removed.Delete(key)
}

// EndDrain merges the buffer into the stable state and closes the window.
// A buffered removal of a key wins over any pending change of the same key.
func (t *ChangeTracker) EndDrain() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buffer == nil {
		return
	}

	for key, obj := range t.buffer.changed {
		if t.stable.removed.Has(key) {
			continue
		}
		t.stable.changed[key] = obj
	}
	for key := range t.buffer.removed {
		delete(t.stable.changed, key)
		t.stable.removed.Insert(key)
	}

	t.buffer = nil
}
