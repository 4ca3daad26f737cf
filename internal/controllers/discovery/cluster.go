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
	"context"
)

// resolveCluster makes sure the cached cluster entity still exists and
// looks it up by its resource key otherwise. Lookup failures keep the
// current state; a cluster that cannot be found disables linking until the
// next attempt.
func (a *Agent) resolveCluster(ctx context.Context) {
	a.log.Debug("Checking if the cluster exists in the catalog")

	if a.cluster != nil {
		entity, err := a.cfg.Catalog.GetClusterByID(ctx, a.cluster.ID)
		if err != nil {
			a.log.Errorw("Unexpected error occurred while fetching cluster by id",
				"operation", "resolveCluster",
				"clusterId", a.cluster.ID,
				"error", err,
			)
			return
		}

		if entity != nil {
			return
		}

		a.log.Warnw("Cluster does not exist anymore, resolving it by its resource key",
			"clusterId", a.cluster.ID,
			"clusterResourceKey", a.cfg.ClusterResourceKey,
		)
		a.cluster = nil
	}

	cluster, err := a.cfg.Catalog.GetClusterByExternalKey(ctx, a.cfg.ClusterResourceKey, a.cfg.ProviderAccountID)
	if err != nil {
		a.log.Errorw("Unexpected error occurred while fetching cluster by resource key",
			"operation", "resolveCluster",
			"clusterResourceKey", a.cfg.ClusterResourceKey,
			"error", err,
		)
		return
	}

	if cluster == nil {
		a.log.Warnw("Cluster with the provider resource key does not exist, relations to the cluster are skipped",
			"clusterResourceKey", a.cfg.ClusterResourceKey,
		)
		return
	}

	a.log.Debugw("Resolved cluster", "clusterId", cluster.ID)
	a.cluster = cluster
}
