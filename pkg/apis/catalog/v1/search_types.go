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

// PropertyFilter restricts an entity search.
// A SIMPLE filter matches Name == Value, a COMPOUND filter combines
// PropertyFilters with Operand.
type PropertyFilter struct {
	// +optional
	FilterType string `json:"filterType,omitempty"`

	// +optional
	Name string `json:"name,omitempty"`

	// +optional
	Value string `json:"value,omitempty"`

	// +optional
	Operand string `json:"operand,omitempty"`

	// +optional
	PropertyFilters []PropertyFilter `json:"propertyFilters,omitempty"`
}

// SimpleFilter returns a SIMPLE filter matching name == value.
func SimpleFilter(name, value string) PropertyFilter {
	return PropertyFilter{FilterType: FilterTypeSimple, Name: name, Value: value}
}

// AnyOf returns a COMPOUND filter matching any of the given filters.
func AnyOf(filters ...PropertyFilter) PropertyFilter {
	return PropertyFilter{
		FilterType:      FilterTypeCompound,
		Operand:         OperandOr,
		PropertyFilters: filters,
	}
}

// SearchRequest is the body of an entity search.
type SearchRequest struct {
	PropertyFilters   []PropertyFilter `json:"propertyFilters"`
	IncludeProperties []string         `json:"includeProperties"`
	Types             []string         `json:"types"`

	// PageNumber is zero-based.
	//
	// +optional
	PageNumber *int `json:"pageNumber,omitempty"`

	// +optional
	PageSize *int `json:"pageSize,omitempty"`
}

// SearchResult is a page of matching entities.
type SearchResult struct {
	TotalFound int      `json:"totalFound"`
	PageNumber int      `json:"pageNumber"`
	PageSize   int      `json:"pageSize"`
	Items      []Entity `json:"items"`
}

// HasNext reports whether more pages follow after pagesFetched pages of
// pageSize entities.
func (r *SearchResult) HasNext(pageSize, pagesFetched int) bool {
	if r.TotalFound == 0 || len(r.Items) == 0 {
		return false
	}
	return r.TotalFound > pageSize*pagesFetched
}

// ResourceTypeFilter matches any of the given resource types.
func ResourceTypeFilter(types ...ResourceType) PropertyFilter {
	filters := make([]PropertyFilter, 0, len(types))
	for _, t := range types {
		filters = append(filters, PropertyFilter{Name: "providerResourceType", Value: string(t)})
	}
	return AnyOf(filters...)
}
