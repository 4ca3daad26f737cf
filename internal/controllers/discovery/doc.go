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

// Package discovery implements the agent that keeps an external catalog in
// sync with the namespaces and pods of a cluster.
//
// On start the agent lists both kinds, projects every object into a catalog
// resource and upserts it, namespaces first so pods can reference their
// namespace as parent. Catalog entries of this account that no listed object
// accounts for are then removed.
//
// Afterwards the agent drains the changes recorded by the informers once per
// resync interval: removed objects are deleted from the catalog and changed
// objects are upserted again. A change is only acknowledged once the catalog
// confirmed it, so failed writes are retried on the next cycle.
//
// When a cluster resource key is configured, namespaces are linked to the
// catalog entity of the cluster and inherit its tags. The cluster is looked
// up again whenever the cached entity disappeared.
package discovery
