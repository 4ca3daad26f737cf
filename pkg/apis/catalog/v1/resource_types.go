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

package v1

// Tag is a name/value attribute attached to a catalog entity.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`

	// Type is the tag kind, TagTypeAutoMap for derived tags.
	//
	// +optional
	Type string `json:"type,omitempty"`

	// CreatedBy records the origin of the tag.
	//
	// +optional
	CreatedBy string `json:"createdBy,omitempty"`
}

// NewSystemTag returns a tag derived from cluster state.
func NewSystemTag(name, value string) Tag {
	return Tag{
		Name:      name,
		Value:     value,
		Type:      TagTypeAutoMap,
		CreatedBy: TagCreatedBySystem,
	}
}

// Parent is a directed relation from a resource to its structural parent.
type Parent struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChildOf returns a parent edge to the entity with the given catalog id.
func ChildOf(id string) Parent {
	return Parent{ID: id, Label: RelationChildOf}
}

// Resource is the outbound record of a single discovered resource.
type Resource struct {
	// ProviderResourceKey correlates the cluster resource with its catalog
	// entity across cycles (the resource uid).
	ProviderResourceKey  string       `json:"providerResourceKey"`
	ProviderResourceType ResourceType `json:"providerResourceType"`
	ProviderAccountID    string       `json:"providerAccountId,omitempty"`
	Provider             string       `json:"provider"`
	Name                 string       `json:"name"`
	MetaTags             []Tag        `json:"metaTags"`

	// Details is the opaque, schemaless detail payload.
	Details map[string]interface{} `json:"details,omitempty"`

	// Parents references only entities whose catalog id is already known.
	//
	// +optional
	Parents []Parent `json:"parents,omitempty"`
}

// Entity is a catalog entity as returned by the catalog API.
type Entity struct {
	ID                   string `json:"id"`
	Type                 string `json:"type,omitempty"`
	Name                 string `json:"name,omitempty"`
	ProviderResourceKey  string `json:"providerResourceKey,omitempty"`
	ProviderResourceType string `json:"providerResourceType,omitempty"`
	ProviderAccountID    string `json:"providerAccountId,omitempty"`
	MetaTags             []Tag  `json:"metaTags,omitempty"`
}

// Cluster is the resolved catalog entity representing the observed cluster.
type Cluster struct {
	ID   string
	Tags []Tag
}

// ClusterFromEntity converts a catalog entity into a Cluster, keeping only
// the name and value of its tags.
func ClusterFromEntity(e *Entity) *Cluster {
	if e == nil {
		return nil
	}

	tags := make([]Tag, 0, len(e.MetaTags))
	for _, t := range e.MetaTags {
		tags = append(tags, Tag{Name: t.Name, Value: t.Value})
	}

	return &Cluster{ID: e.ID, Tags: tags}
}

// FailedResource describes a resource the catalog refused to store.
type FailedResource struct {
	ProviderResourceKey string      `json:"providerResourceKey"`
	Status              int         `json:"status"`
	Error               interface{} `json:"error,omitempty"`
}

// UpsertResult is the outcome of a batch upsert.
type UpsertResult struct {
	Success  int              `json:"success"`
	Failures int              `json:"failures"`
	Items    []Entity         `json:"items"`
	Failed   []FailedResource `json:"failed"`
}

// Merge adds the counts and item lists of other into r.
func (r *UpsertResult) Merge(other *UpsertResult) {
	if other == nil {
		return
	}

	r.Success += other.Success
	r.Failures += other.Failures
	r.Items = append(r.Items, other.Items...)
	r.Failed = append(r.Failed, other.Failed...)
}

// Total returns the number of resources accounted for by the result.
func (r *UpsertResult) Total() int {
	return r.Success + r.Failures
}

// FailedResult reports every resource as failed with the given status and error.
func FailedResult(resources []Resource, status int, err string) *UpsertResult {
	result := &UpsertResult{Failures: len(resources)}
	for i := range resources {
		result.Failed = append(result.Failed, FailedResource{
			ProviderResourceKey: resources[i].ProviderResourceKey,
			Status:              status,
			Error:               err,
		})
	}
	return result
}

// DeleteRequest is the body of a batch delete.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteResult is the outcome of a batch delete.
type DeleteResult struct {
	Deleted int `json:"deleted"`
}
