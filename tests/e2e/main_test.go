//go:build e2e

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

package e2e_test

import (
	"context"
	"flag"
	"os"
	"testing"

	"sigs.k8s.io/e2e-framework/pkg/env"
	"sigs.k8s.io/e2e-framework/pkg/envconf"
)

var testEnv env.Environment

// TestMain runs the discovery features against the cluster of the current
// kubeconfig. Labelled namespaces left over by an aborted run are removed
// before the first feature starts.
func TestMain(m *testing.M) {
	flag.Parse()

	testEnv = env.New().
		Setup(removeTestNamespaces).
		AfterEachTest(func(ctx context.Context, config *envconf.Config, _ *testing.T) (context.Context, error) {
			return removeTestNamespaces(ctx, config)
		}).
		Finish(removeTestNamespaces)

	os.Exit(testEnv.Run(m))
}

func removeTestNamespaces(ctx context.Context, config *envconf.Config) (context.Context, error) {
	var s suite
	if err := s.withClient(config.Client()); err != nil {
		return ctx, err
	}

	return ctx, s.cleanup(ctx)
}
