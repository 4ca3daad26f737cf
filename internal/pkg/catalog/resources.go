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
	"net/http"

	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"
)

const (
	upsertPath = "catalog/batch/entities/resource"
	deletePath = "catalog/batch/entities"
)

// Upsert stores resources in sequential batches of BatchSize. The result
// accounts for every input: Success plus Failures always equals
// len(resources). Resources of a batch that could not be sent are reported
// as failed with the response status, or 0 when there was none.
func (c *Client) Upsert(ctx context.Context, resources []catalogv1.Resource) *catalogv1.UpsertResult {
	result := &catalogv1.UpsertResult{}

	for start := 0; start < len(resources); start += c.batchSize {
		end := min(start+c.batchSize, len(resources))
		result.Merge(c.upsertBatch(ctx, resources[start:end]))
	}

	return result
}

// upsertBatch sends one batch. A batch rejected as too large is split in
// two halves which are sent independently; a single resource that is still
// too large fails on its own.
func (c *Client) upsertBatch(ctx context.Context, batch []catalogv1.Resource) *catalogv1.UpsertResult {
	result := &catalogv1.UpsertResult{}

	err := c.do(ctx, http.MethodPost, upsertPath, batch, result)
	switch {
	case err == nil:
		return result

	case IsPayloadTooLarge(err) && len(batch) > 1:
		mid := len(batch) / 2
		c.log.Debugw("Payload is too large, reducing batch size", "size", len(batch), "first", mid, "second", len(batch)-mid)

		result = c.upsertBatch(ctx, batch[:mid])
		result.Merge(c.upsertBatch(ctx, batch[mid:]))
		return result

	case IsPayloadTooLarge(err):
		c.log.Errorw("Resource exceeds the catalog payload limit",
			"operation", "upsertResourcesBatch",
			"key", batch[0].ProviderResourceKey,
			"error", err,
		)

	default:
		c.log.Errorw("Unexpected error occurred while batch creating resources",
			"operation", "upsertResourcesBatch",
			"size", len(batch),
			"error", err,
		)
	}

	return catalogv1.FailedResult(batch, StatusCode(err), err.Error())
}

// DeleteBatch deletes the entities with the given ids in a single request
// and returns the number the catalog confirmed.
func (c *Client) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	result := &catalogv1.DeleteResult{}
	if err := c.do(ctx, http.MethodDelete, deletePath, &catalogv1.DeleteRequest{IDs: ids}, result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// Delete deletes ids in sequential batches of BatchSize. A failed batch is
// logged and the remaining batches are still attempted. It returns the
// number of confirmed deletions.
func (c *Client) Delete(ctx context.Context, ids []string) int {
	deleted := 0

	for start := 0; start < len(ids); start += c.batchSize {
		batch := ids[start:min(start+c.batchSize, len(ids))]

		n, err := c.DeleteBatch(ctx, batch)
		if err != nil {
			c.log.Errorw("Unexpected error occurred while batch deleting resources",
				"operation", "deleteResourcesBatch",
				"ids", batch,
				"error", err,
			)
			continue
		}
		deleted += n
	}

	return deleted
}
