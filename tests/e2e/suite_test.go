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
	"errors"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/e2e-framework/klient"
	"sigs.k8s.io/e2e-framework/klient/wait"
)

const (
	// testLabel marks every object created by the e2e suite.
	testLabel = "discovery-agent.k8c.io/e2e"
)

var errClientNotInitialized = errors.New("client is not initialized")

type suite struct {
	client    client.Client
	clientset kubernetes.Interface
}

func (s *suite) withClient(kl klient.Client) error {
	scheme := runtime.NewScheme()

	cl, err := client.New(kl.RESTConfig(), client.Options{Scheme: scheme})
	if err != nil {
		return err
	}

	if err := corev1.SchemeBuilder.AddToScheme(scheme); err != nil {
		return err
	}

	cs, err := kubernetes.NewForConfig(kl.RESTConfig())
	if err != nil {
		return err
	}

	s.client = cl
	s.clientset = cs
	return nil
}

func (s *suite) createNamespace(ctx context.Context, name string, labels map[string]string) (*corev1.Namespace, error) {
	if labels == nil {
		labels = map[string]string{}
	}
	labels[testLabel] = "true"

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels}}
	if err := s.client.Create(ctx, ns); err != nil {
		return nil, err
	}
	return ns, nil
}

func (s *suite) createPod(ctx context.Context, namespace, name string, labels map[string]string) (*corev1.Pod, error) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Name:  "pause",
				Image: "registry.k8s.io/pause:3.10",
			}},
		},
	}
	if err := s.client.Create(ctx, pod); err != nil {
		return nil, err
	}
	return pod, nil
}

func (s *suite) deletePod(ctx context.Context, pod *corev1.Pod) error {
	return s.client.Delete(ctx, pod, client.GracePeriodSeconds(0))
}

func (s *suite) cleanupTestNamespaces(ctx context.Context) error {
	if s.client == nil {
		return errClientNotInitialized
	}

	return waitFor(ctx, func(ctx context.Context) (bool, error) {
		namespaces := corev1.NamespaceList{}
		if err := s.client.List(ctx, &namespaces, client.HasLabels{testLabel}); err != nil {
			return false, err
		}

		for _, ns := range namespaces.Items {
			if ns.DeletionTimestamp != nil {
				continue
			}
			if err := s.client.Delete(ctx, &ns); err != nil && !apierrors.IsNotFound(err) {
				return false, nil
			}
		}

		return len(namespaces.Items) == 0, nil
	})
}

func (s *suite) cleanup(ctx context.Context) error {
	return s.cleanupTestNamespaces(ctx)
}

const (
	timeout  = time.Minute * 2
	interval = time.Second * 1
)

func waitFor(ctx context.Context, f func(ctx context.Context) (bool, error)) error {
	err := wait.For(
		f,
		wait.WithTimeout(timeout),
		wait.WithInterval(interval),
		wait.WithContext(ctx),
	)

	return err
}
