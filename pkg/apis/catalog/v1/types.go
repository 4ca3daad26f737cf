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

// Package v1 contains the wire types of the catalog API the discovery agent
// writes to.
package v1

const (
	// Provider is the provider name attached to every discovered resource.
	Provider = "K8s"

	// EntityTypeResource is the catalog entity type used for searches.
	EntityTypeResource = "resource"
)

// ResourceType is the catalog resource type of a discovered entity.
type ResourceType string

const (
	// ResourceTypeNamespace is the catalog type of a Kubernetes namespace.
	ResourceTypeNamespace ResourceType = "K8s:Cluster:Namespace"

	// ResourceTypePod is the catalog type of a Kubernetes pod.
	ResourceTypePod ResourceType = "K8s:Cluster:Pod"
)

// AllResourceTypes lists every resource type the agent manages, in processing order.
var AllResourceTypes = []ResourceType{ResourceTypeNamespace, ResourceTypePod}

const (
	// TagTypeAutoMap marks tags derived automatically from cluster state.
	TagTypeAutoMap = "AutoMap"

	// TagCreatedBySystem marks tags created by the agent rather than a user.
	TagCreatedBySystem = "SYSTEM"
)

const (
	// RelationChildOf is the parent edge label (pod -> namespace -> cluster).
	RelationChildOf = "child_of"
)

const (
	// LabelNamespaceName is the canonical label carrying a namespace's name.
	LabelNamespaceName = "kubernetes.io/metadata.name"
)

const (
	// FilterTypeSimple matches a single property value.
	FilterTypeSimple = "SIMPLE"

	// FilterTypeCompound combines nested filters with an operand.
	FilterTypeCompound = "COMPOUND"

	// OperandOr matches when any nested filter matches.
	OperandOr = "OR"
)
