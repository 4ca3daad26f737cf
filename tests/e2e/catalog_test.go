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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	catalogv1 "k8c.io/discovery-agent/pkg/apis/catalog/v1"
)

type storedEntity struct {
	id       string
	resource catalogv1.Resource
}

// catalogServer is an in-memory catalog API the agent under test writes to.
// Entities are keyed by provider resource key and keep their id across
// upserts.
type catalogServer struct {
	*httptest.Server

	mu       sync.Mutex
	entities map[string]storedEntity
}

func newCatalogServer() *catalogServer {
	s := &catalogServer{entities: map[string]storedEntity{}}

	r := chi.NewRouter()
	r.Route("/catalog", func(r chi.Router) {
		r.Post("/batch/entities/resource", s.upsert)
		r.Delete("/batch/entities", s.delete)
		r.Post("/entities", s.search)
		r.Get("/entities/{id}", s.get)
	})

	s.Server = httptest.NewServer(r)
	return s
}

func (s *catalogServer) upsert(w http.ResponseWriter, r *http.Request) {
	var batch []catalogv1.Resource
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := catalogv1.UpsertResult{}
	for _, res := range batch {
		e, ok := s.entities[res.ProviderResourceKey]
		if !ok {
			e.id = uuid.New().String()
		}
		e.resource = res
		s.entities[res.ProviderResourceKey] = e

		result.Success++
		result.Items = append(result.Items, catalogv1.Entity{ID: e.id, ProviderResourceKey: res.ProviderResourceKey})
	}
	writeJSON(w, result)
}

func (s *catalogServer) delete(w http.ResponseWriter, r *http.Request) {
	var req catalogv1.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		ids[id] = true
	}

	deleted := 0
	for key, e := range s.entities {
		if ids[e.id] {
			delete(s.entities, key)
			deleted++
		}
	}
	writeJSON(w, catalogv1.DeleteResult{Deleted: deleted})
}

// search returns every stored entity in a single page.
func (s *catalogServer) search(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := catalogv1.SearchResult{}
	for _, e := range s.entities {
		result.Items = append(result.Items, catalogv1.Entity{ID: e.id, ProviderResourceKey: e.resource.ProviderResourceKey})
	}
	result.TotalFound = len(result.Items)
	writeJSON(w, result)
}

func (s *catalogServer) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for _, e := range s.entities {
		if e.id == id {
			writeJSON(w, catalogv1.Entity{ID: e.id, ProviderResourceKey: e.resource.ProviderResourceKey})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

// resource returns the stored resource and catalog id of key.
func (s *catalogServer) resource(key string) (catalogv1.Resource, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[key]
	return e.resource, e.id, ok
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
