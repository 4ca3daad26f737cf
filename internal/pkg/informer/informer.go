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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/pager"
	"k8s.io/utils/clock"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"

	kubeutil "k8c.io/discovery-agent/internal/pkg/kubernetes"
)

const defaultPageSize = 500

// DefaultBackoff is the delay between subscription restarts after a failure.
var DefaultBackoff = wait.Backoff{
	Duration: time.Second,
	Factor:   2,
	Jitter:   0.1,
	Steps:    8,
	Cap:      30 * time.Second,
}

var errStreamExpired = errors.New("resume cursor expired")

// Config configures an Informer.
type Config struct {
	// Kind names the tracked resource kind in logs.
	Kind   string
	Source Source
	Log    *zap.SugaredLogger

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Backoff defaults to DefaultBackoff.
	Backoff *wait.Backoff

	// PageSize bounds a single list request, defaults to 500.
	PageSize int64
}

// Informer keeps a ChangeTracker up to date with a live subscription to one
// resource collection. It stores only the objects pending synchronization
// and the last seen resource version of every key.
type Informer struct {
	*ChangeTracker

	kind     string
	source   Source
	log      *zap.SugaredLogger
	clock    clock.Clock
	backoff  wait.Backoff
	pageSize int64

	mu       sync.Mutex
	cursor   string
	versions map[string]string
}

// New creates an Informer.
func New(cfg Config) *Informer {
	i := &Informer{
		ChangeTracker: NewChangeTracker(),
		kind:          cfg.Kind,
		source:        cfg.Source,
		log:           cfg.Log,
		clock:         cfg.Clock,
		backoff:       DefaultBackoff,
		pageSize:      cfg.PageSize,
		versions:      map[string]string{},
	}

	if i.log == nil {
		i.log = zap.NewNop().Sugar()
	}
	if i.clock == nil {
		i.clock = clock.RealClock{}
	}
	if cfg.Backoff != nil {
		i.backoff = *cfg.Backoff
	}
	if i.pageSize <= 0 {
		i.pageSize = defaultPageSize
	}

	return i
}

// Cursor returns the resume token of the subscription.
func (i *Informer) Cursor() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.cursor
}

func (i *Informer) setCursor(cursor string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.cursor = cursor
}

// ListCurrent returns the full current collection and positions the
// subscription right after it. A failed listing is logged and yields an
// empty collection; Run relists on its own before subscribing.
func (i *Informer) ListCurrent(ctx context.Context) []ctrlruntimeclient.Object {
	i.log.Debugw("Fetching initial data", "kind", i.kind)

	objs, cursor, err := i.list(ctx)
	if err != nil {
		i.log.Errorw("Failed to list resources", "kind", i.kind, "operation", "ListCurrent", "error", err)
		return nil
	}

	versions := make(map[string]string, len(objs))
	for _, obj := range objs {
		versions[kubeutil.ResourceKey(obj)] = obj.GetResourceVersion()
	}

	i.mu.Lock()
	i.cursor = cursor
	i.versions = versions
	i.mu.Unlock()

	return objs
}

func (i *Informer) list(ctx context.Context) ([]ctrlruntimeclient.Object, string, error) {
	p := pager.New(func(ctx context.Context, opts metav1.ListOptions) (runtime.Object, error) {
		return i.source.List(ctx, opts)
	})
	p.PageSize = i.pageSize

	list, _, err := p.List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list %s: %w", i.kind, err)
	}

	listMeta, err := meta.ListAccessor(list)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s list metadata: %w", i.kind, err)
	}

	items, err := meta.ExtractList(list)
	if err != nil {
		return nil, "", fmt.Errorf("failed to extract %s list items: %w", i.kind, err)
	}

	objs := make([]ctrlruntimeclient.Object, 0, len(items))
	for _, item := range items {
		obj, ok := item.(ctrlruntimeclient.Object)
		if !ok {
			return nil, "", fmt.Errorf("unexpected %s list item %T", i.kind, item)
		}
		objs = append(objs, obj)
	}

	return objs, listMeta.GetResourceVersion(), nil
}

// relist lists the collection again after the cursor expired and records
// every difference to the last seen versions: new or changed objects as
// upserts, vanished keys as removals.
func (i *Informer) relist(ctx context.Context) error {
	objs, cursor, err := i.list(ctx)
	if err != nil {
		return err
	}

	i.mu.Lock()
	previous := i.versions
	i.mu.Unlock()

	seen := make(map[string]string, len(objs))
	changed, removed := 0, 0
	for _, obj := range objs {
		key := kubeutil.ResourceKey(obj)
		seen[key] = obj.GetResourceVersion()

		if version, ok := previous[key]; !ok || version != obj.GetResourceVersion() {
			if i.RecordUpsert(obj) {
				changed++
			}
		}
	}
	for key := range previous {
		if _, ok := seen[key]; !ok {
			i.RecordDelete(key)
			removed++
		}
	}

	i.mu.Lock()
	i.versions = seen
	i.cursor = cursor
	i.mu.Unlock()

	i.log.Infow("Relisted resources", "kind", i.kind, "total", len(objs), "changed", changed, "removed", removed)
	return nil
}

// Run keeps the subscription alive until ctx is cancelled. Every time the
// change stream terminates it is reopened, after a backoff when the stream
// failed, with a full relist first when the cursor expired.
func (i *Informer) Run(ctx context.Context) {
	i.log.Debugw("Setting up watch", "kind", i.kind)

	backoff := i.backoff
	for ctx.Err() == nil {
		events, err := i.subscribe(ctx)
		if ctx.Err() != nil {
			return
		}

		switch {
		case errors.Is(err, errStreamExpired):
			i.log.Debugw("Resume cursor expired, relisting before the next watch", "kind", i.kind)
		case err != nil:
			i.log.Errorw("Unexpected error occurred while watching", "kind", i.kind, "operation", "Run", "error", err)
		case events > 0:
			backoff = i.backoff
			continue
		}

		i.sleep(ctx, backoff.Step())
	}
}

func (i *Informer) subscribe(ctx context.Context) (int, error) {
	if i.Cursor() == "" {
		if err := i.relist(ctx); err != nil {
			return 0, err
		}
	}

	w, err := i.source.Watch(ctx, metav1.ListOptions{
		ResourceVersion:     i.Cursor(),
		AllowWatchBookmarks: true,
	})
	if err != nil {
		if isExpired(err) {
			i.setCursor("")
			return 0, fmt.Errorf("%w: %w", errStreamExpired, err)
		}
		return 0, fmt.Errorf("failed to start watching %s: %w", i.kind, err)
	}
	defer w.Stop()

	events := 0
	for {
		select {
		case <-ctx.Done():
			return events, nil
		case event, ok := <-w.ResultChan():
			if !ok {
				return events, nil
			}
			events++

			if err := i.handle(event); err != nil {
				return events, err
			}
		}
	}
}

func (i *Informer) handle(event watch.Event) error {
	if event.Type == watch.Error {
		err := apierrors.FromObject(event.Object)
		if isExpired(err) {
			i.setCursor("")
			return fmt.Errorf("%w: %w", errStreamExpired, err)
		}
		return fmt.Errorf("watch of %s failed: %w", i.kind, err)
	}

	obj, ok := event.Object.(ctrlruntimeclient.Object)
	if !ok {
		return fmt.Errorf("unexpected %s watch object %T", i.kind, event.Object)
	}
	key := kubeutil.ResourceKey(obj)

	switch event.Type {
	case watch.Added, watch.Modified:
		i.log.Debugw("Resource changed", "kind", i.kind, "event", event.Type, "key", key, "name", obj.GetName())
		i.RecordUpsert(obj)
		i.observe(key, obj.GetResourceVersion())
	case watch.Deleted:
		i.log.Debugw("Resource deleted", "kind", i.kind, "key", key, "name", obj.GetName())
		i.RecordDelete(key)
		i.forget(key)
	}

	i.setCursor(obj.GetResourceVersion())
	return nil
}

func (i *Informer) observe(key, version string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.versions[key] = version
}

func (i *Informer) forget(key string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.versions, key)
}

func (i *Informer) sleep(ctx context.Context, d time.Duration) {
	t := i.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C():
	}
}

func isExpired(err error) bool {
	return apierrors.IsResourceExpired(err) || apierrors.IsGone(err)
}
