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

package kubernetes

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// ResourceKey returns the key correlating obj across list, watch and catalog:
// its uid, or its name when the uid is not set.
func ResourceKey(obj ctrlruntimeclient.Object) string {
	if uid := string(obj.GetUID()); uid != "" {
		return uid
	}
	return obj.GetName()
}

// ToUnstructured converts obj into a schemaless map.
func ToUnstructured(obj runtime.Object) (map[string]interface{}, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T to unstructured: %w", obj, err)
	}
	return content, nil
}

// Label is a single name/value pair found in an object tree.
type Label struct {
	Name  string
	Value string
}

// FindNestedLabels walks tree and collects every entry stored under a key
// containing match. A matching map contributes its scalar entries, a matching
// scalar contributes itself, anything else is searched recursively. Empty
// values are skipped. Keys are visited in sorted order.
func FindNestedLabels(tree map[string]interface{}, match string) []Label {
	var labels []Label
	walkLabels(tree, match, &labels)
	return labels
}

func walkLabels(node interface{}, match string, labels *[]Label) {
	switch v := node.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			child := v[key]
			if isEmpty(child) {
				continue
			}

			if !strings.Contains(key, match) {
				walkLabels(child, match, labels)
				continue
			}

			switch c := child.(type) {
			case map[string]interface{}:
				for _, name := range sortedKeys(c) {
					if isObject(c[name]) {
						continue
					}
					*labels = append(*labels, Label{Name: name, Value: fmt.Sprint(c[name])})
				}
			case []interface{}:
				walkLabels(c, match, labels)
			default:
				*labels = append(*labels, Label{Name: key, Value: fmt.Sprint(c)})
			}
		}
	case []interface{}:
		for _, item := range v {
			walkLabels(item, match, labels)
		}
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isObject(v interface{}) bool {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}:
		return true
	}
	return false
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}
