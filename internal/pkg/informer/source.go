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

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// Source lists the current state of a resource collection and subscribes
// to its changes.
type Source interface {
	List(ctx context.Context, opts metav1.ListOptions) (runtime.Object, error)
	Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error)
}

type sourceFuncs struct {
	list  func(ctx context.Context, opts metav1.ListOptions) (runtime.Object, error)
	watch func(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error)
}

func (s *sourceFuncs) List(ctx context.Context, opts metav1.ListOptions) (runtime.Object, error) {
	return s.list(ctx, opts)
}

func (s *sourceFuncs) Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
	return s.watch(ctx, opts)
}

// NamespaceSource lists and watches the cluster's namespaces.
func NamespaceSource(cs kubernetes.Interface) Source {
	return &sourceFuncs{
		list: func(ctx context.Context, opts metav1.ListOptions) (runtime.Object, error) {
			return cs.CoreV1().Namespaces().List(ctx, opts)
		},
		watch: func(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
			return cs.CoreV1().Namespaces().Watch(ctx, opts)
		},
	}
}

// PodSource lists and watches pods across all namespaces.
func PodSource(cs kubernetes.Interface) Source {
	return &sourceFuncs{
		list: func(ctx context.Context, opts metav1.ListOptions) (runtime.Object, error) {
			return cs.CoreV1().Pods(metav1.NamespaceAll).List(ctx, opts)
		},
		watch: func(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
			return cs.CoreV1().Pods(metav1.NamespaceAll).Watch(ctx, opts)
		},
	}
}
