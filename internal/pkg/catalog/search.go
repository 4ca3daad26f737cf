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

package catalog

import (
	"context"
	"fmt"
	"net/http"

	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"
)

const (
	searchPath = "catalog/entities"
	entityPath = "catalog/entities/"
)

func (c *Client) search(ctx context.Context, req *catalogv1.SearchRequest) (*catalogv1.SearchResult, error) {
	result := &catalogv1.SearchResult{}
	if err := c.do(ctx, http.MethodPost, searchPath, req, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAll returns every catalog entity of the given account whose resource
// type is one of resourceTypes, following pagination until all pages were
// fetched.
func (c *Client) ListAll(ctx context.Context, accountID string, resourceTypes []catalogv1.ResourceType) ([]catalogv1.Entity, error) {
	var entities []catalogv1.Entity

	pageSize := c.pageSize
	for page := 0; ; page++ {
		pageNumber := page
		result, err := c.search(ctx, &catalogv1.SearchRequest{
			PropertyFilters: []catalogv1.PropertyFilter{
				catalogv1.SimpleFilter("providerAccountId", accountID),
				catalogv1.ResourceTypeFilter(resourceTypes...),
			},
			IncludeProperties: []string{},
			Types:             []string{catalogv1.EntityTypeResource},
			PageNumber:        &pageNumber,
			PageSize:          &pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d of account %s entities: %w", page, accountID, err)
		}

		entities = append(entities, result.Items...)

		if !result.HasNext(pageSize, page+1) {
			return entities, nil
		}
	}
}

// GetClusterByID fetches the entity with the given id. A missing entity is
// not an error: it returns nil, nil.
func (c *Client) GetClusterByID(ctx context.Context, id string) (*catalogv1.Entity, error) {
	entity := &catalogv1.Entity{}

	err := c.do(ctx, http.MethodGet, entityPath+id, nil, entity)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cluster %s: %w", id, err)
	}

	return entity, nil
}

// GetClusterByExternalKey looks up the cluster entity by its provider
// resource key. No match returns nil, nil. When several entities match, the
// one belonging to accountID is preferred, otherwise the first one is used.
func (c *Client) GetClusterByExternalKey(ctx context.Context, key, accountID string) (*catalogv1.Cluster, error) {
	result, err := c.search(ctx, &catalogv1.SearchRequest{
		PropertyFilters: []catalogv1.PropertyFilter{
			catalogv1.SimpleFilter("providerResourceKey", key),
		},
		IncludeProperties: []string{"providerAccountId", "metaTags"},
		Types:             []string{catalogv1.EntityTypeResource},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search cluster by resource key %s: %w", key, err)
	}

	if result.TotalFound == 0 || len(result.Items) == 0 {
		return nil, nil
	}

	cluster := &result.Items[0]
	if len(result.Items) > 1 || result.TotalFound > 1 {
		ids := make([]string, 0, len(result.Items))
		for i := range result.Items {
			ids = append(ids, result.Items[i].ID)
		}
		c.log.Warnw("More than one entity has the cluster resource key, make sure the catalog data is not ambiguous",
			"clusterResourceKey", key,
			"foundResources", ids,
		)

		for i := range result.Items {
			if result.Items[i].ProviderAccountID == accountID {
				cluster = &result.Items[i]
				break
			}
		}
	}

	return catalogv1.ClusterFromEntity(cluster), nil
}
