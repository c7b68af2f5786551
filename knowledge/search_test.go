// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, _ := newTestStore(t)
	return NewEngine(store, DefaultWeights())
}

func TestSearch_EmptyQuery(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"only short tokens", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Search(context.Background(), tt.query, "")
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("Expected no results, got %d", len(results))
			}
		})
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	engine := newTestEngine(t)

	results, err := engine.Search(context.Background(), "JOULE", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected matches for uppercase query")
	}
	if results[0].ID != "joule_studio_01" {
		t.Errorf("Expected joule_studio_01 first, got %s", results[0].ID)
	}
}

func TestSearch_SetupQueryRanksAICoreSetupDoc(t *testing.T) {
	engine := newTestEngine(t)

	results, err := engine.Search(context.Background(), "ai core setup deployment", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected results")
	}
	if results[0].ID != "aicore_setup_02" {
		t.Errorf("Expected setup doc ranked first, got %s", results[0].ID)
	}
	if results[0].Service != "ai_core" {
		t.Errorf("Expected ai_core service, got %s", results[0].Service)
	}
}

func TestSearch_ServiceFilterScopesResults(t *testing.T) {
	engine := newTestEngine(t)

	results, err := engine.Search(context.Background(), "sap ai", "joule")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, r := range results {
		if r.Service != "joule" {
			t.Errorf("Result outside filtered service: %s", r.Service)
		}
	}
}

func TestSearch_UnknownFilterFallsBackToWholeCorpus(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	unfiltered, err := engine.Search(ctx, "sap", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	filtered, err := engine.Search(ctx, "sap", "no_such_service")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(filtered) != len(unfiltered) {
		t.Errorf("Unknown filter changed result count: %d vs %d", len(filtered), len(unfiltered))
	}
}

func TestSearch_CapsAtMaxResults(t *testing.T) {
	backend := &memBackend{corpus: NewCorpus()}
	backend.corpus.Services["ai_core"] = &ServiceEntry{
		DisplayName: "SAP AI Core",
		Description: "Runtime",
	}
	for i := 0; i < 25; i++ {
		backend.corpus.Services["ai_core"].Docs = append(backend.corpus.Services["ai_core"].Docs, Document{
			ID:    fmt.Sprintf("ai_core_%02d", i+1),
			Title: "Deployment Guide",
		})
	}
	engine := NewEngine(NewStore(backend), DefaultWeights())

	results, err := engine.Search(context.Background(), "deployment", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != MaxResults {
		t.Errorf("Expected %d results, got %d", MaxResults, len(results))
	}
}

func TestSearch_AdditiveWeightsAcrossFields(t *testing.T) {
	// One doc matches a term in title only, another in title and tags.
	// The double match must rank higher.
	backend := &memBackend{corpus: NewCorpus()}
	backend.corpus.Services["svc"] = &ServiceEntry{
		DisplayName: "Service",
		Docs: []Document{
			{ID: "single", Title: "deployment notes"},
			{ID: "double", Title: "deployment guide", Tags: []string{"deployment"}},
		},
	}
	engine := NewEngine(NewStore(backend), DefaultWeights())

	results, err := engine.Search(context.Background(), "deployment", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != "double" {
		t.Errorf("Expected title+tag match first, got %s", results[0].ID)
	}
}

func TestSearch_TiesKeepCorpusOrder(t *testing.T) {
	backend := &memBackend{corpus: NewCorpus()}
	backend.corpus.Services["svc"] = &ServiceEntry{
		DisplayName: "Service",
		Docs: []Document{
			{ID: "first", Title: "deployment a"},
			{ID: "second", Title: "deployment b"},
			{ID: "third", Title: "deployment c"},
		},
	}
	engine := NewEngine(NewStore(backend), DefaultWeights())

	results, err := engine.Search(context.Background(), "deployment", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, results[i].ID)
		}
	}
}

func TestSearch_ScoreNeverSerialized(t *testing.T) {
	engine := newTestEngine(t)

	results, err := engine.Search(context.Background(), "sap ai core", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected results")
	}

	data, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "score") {
		t.Errorf("Score leaked into serialized results: %s", data)
	}
}

func TestSearch_ZeroScoreExcluded(t *testing.T) {
	engine := newTestEngine(t)

	results, err := engine.Search(context.Background(), "zzzz qqqq", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results for non-matching query, got %d", len(results))
	}
}
