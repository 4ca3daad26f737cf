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
	"fmt"
	"sort"

	kubeutil "k8c.io/discovery-agent/internal/pkg/kubernetes"
	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"

	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	labelsKey = "labels"

	detailsConfig          = "config"
	detailsTags            = "tags"
	detailsNamespaceLabels = "namespaceLabels"
	detailsOwnerID         = "ownerId"
)

// namespaceIndex is the per-namespace data pods inherit: tags and labels by
// namespace key, and the namespace key by name.
type namespaceIndex struct {
	tags   map[string][]catalogv1.Tag
	labels map[string]map[string]string
	keys   map[string]string
}

func newNamespaceIndex() *namespaceIndex {
	return &namespaceIndex{
		tags:   map[string][]catalogv1.Tag{},
		labels: map[string]map[string]string{},
		keys:   map[string]string{},
	}
}

func (n *namespaceIndex) set(name, key string, tags []catalogv1.Tag, labels map[string]string) {
	n.tags[key] = tags
	n.labels[key] = labels
	n.keys[name] = key
}

func (n *namespaceIndex) remove(key string) {
	delete(n.tags, key)
	delete(n.labels, key)

	for name, k := range n.keys {
		if k == key {
			delete(n.keys, name)
			break
		}
	}
}

// keyOf returns the key of the namespace with the given name.
func (n *namespaceIndex) keyOf(name string) (string, bool) {
	key, ok := n.keys[name]
	return key, ok
}

func labelTags(labels map[string]string) []catalogv1.Tag {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	tags := make([]catalogv1.Tag, 0, len(names)+1)
	for _, name := range names {
		tags = append(tags, catalogv1.NewSystemTag(name, labels[name]))
	}
	return tags
}

// namespaceName prefers the object name and falls back to the canonical
// name label.
func namespaceName(ns ctrlruntimeclient.Object) string {
	if name := ns.GetName(); name != "" {
		return name
	}
	return ns.GetLabels()[catalogv1.LabelNamespaceName]
}

// namespaceTags turns every label into a tag and adds the canonical name tag
// when the label is missing.
func namespaceTags(ns ctrlruntimeclient.Object) []catalogv1.Tag {
	labels := ns.GetLabels()

	tags := labelTags(labels)
	if _, ok := labels[catalogv1.LabelNamespaceName]; !ok {
		tags = append(tags, catalogv1.NewSystemTag(catalogv1.LabelNamespaceName, namespaceName(ns)))
	}
	return tags
}

func (a *Agent) projectNamespace(ns ctrlruntimeclient.Object) (catalogv1.Resource, error) {
	content, err := kubeutil.ToUnstructured(ns)
	if err != nil {
		return catalogv1.Resource{}, err
	}

	details := map[string]interface{}{}
	if metadata, ok := content["metadata"].(map[string]interface{}); ok {
		for k, v := range metadata {
			if k == "managedFields" {
				continue
			}
			details[k] = v
		}
	}

	config := map[string]interface{}{}
	for k, v := range content {
		if k != "metadata" {
			config[k] = v
		}
	}
	details[detailsConfig] = config

	resource := catalogv1.Resource{
		ProviderResourceKey:  kubeutil.ResourceKey(ns),
		ProviderResourceType: catalogv1.ResourceTypeNamespace,
		ProviderAccountID:    a.cfg.ProviderAccountID,
		Provider:             catalogv1.Provider,
		Name:                 namespaceName(ns),
		MetaTags:             namespaceTags(ns),
		Details:              details,
	}

	if a.cluster != nil {
		resource.Parents = []catalogv1.Parent{catalogv1.ChildOf(a.cluster.ID)}
		details[detailsTags] = a.cluster.Tags
	}

	return resource, nil
}

// projectPod builds the catalog resource of a pod. The namespace index must
// already contain the pod's namespace for tags and parent to be set.
func (a *Agent) projectPod(pod ctrlruntimeclient.Object) (catalogv1.Resource, error) {
	content, err := kubeutil.ToUnstructured(pod)
	if err != nil {
		return catalogv1.Resource{}, err
	}

	var tags []catalogv1.Tag
	for _, label := range kubeutil.FindNestedLabels(content, labelsKey) {
		tags = append(tags, catalogv1.NewSystemTag(label.Name, label.Value))
	}

	nsKey, nsKnown := a.namespaces.keyOf(pod.GetNamespace())
	if nsKnown {
		tags = append(tags, a.namespaces.tags[nsKey]...)
	}
	if a.cluster != nil {
		for _, t := range a.cluster.Tags {
			tags = append(tags, catalogv1.NewSystemTag(t.Name, t.Value))
		}
	}

	details := make(map[string]interface{}, len(content)+2)
	for k, v := range content {
		details[k] = v
	}
	details[detailsNamespaceLabels] = a.namespaces.labels[nsKey]
	if a.cluster != nil {
		details[detailsOwnerID] = a.cfg.ClusterResourceKey
	}

	resource := catalogv1.Resource{
		ProviderResourceKey:  kubeutil.ResourceKey(pod),
		ProviderResourceType: catalogv1.ResourceTypePod,
		ProviderAccountID:    a.cfg.ProviderAccountID,
		Provider:             catalogv1.Provider,
		Name:                 fmt.Sprintf("%s/%s", pod.GetNamespace(), pod.GetName()),
		MetaTags:             tags,
		Details:              details,
	}

	if id, ok := a.ids[nsKey]; nsKnown && ok {
		resource.Parents = []catalogv1.Parent{catalogv1.ChildOf(id)}
	}

	if resource.MetaTags == nil {
		resource.MetaTags = []catalogv1.Tag{}
	}

	return resource, nil
}
