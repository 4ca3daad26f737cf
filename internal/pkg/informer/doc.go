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

/*
Package informer tracks incremental changes of one Kubernetes resource
collection for periodic synchronization.

An Informer lists the collection once, then keeps a watch open from the
returned resource version and records every change into a ChangeTracker.
A consumer drains the tracker inside a drain window:

	tracker.BeginDrain()
	for _, key := range tracker.PendingRemovals() {
		// propagate
		tracker.AcknowledgeRemoval(key)
	}
	for _, obj := range tracker.PendingChanges() {
		// propagate
		tracker.AcknowledgeChange(kubeutil.ResourceKey(obj))
	}
	tracker.EndDrain()

Events observed while the window is open are buffered and merged on
EndDrain, so the stable state only changes through acknowledgements.
*/
package informer
