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
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend_MissingFileYieldsEmptyCorpus(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "missing.json"))

	corpus, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(corpus.Services) != 0 {
		t.Errorf("Expected empty corpus, got %d services", len(corpus.Services))
	}
}

func TestFileBackend_InvalidJSONYieldsEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	backend := NewFileBackend(path)

	corpus, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(corpus.Services) != 0 {
		t.Errorf("Expected empty corpus, got %d services", len(corpus.Services))
	}
}

func TestFileBackend_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	backend := NewFileBackend(path)
	ctx := context.Background()

	if err := backend.Save(ctx, testCorpus()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Services) != 2 {
		t.Fatalf("Expected 2 services, got %d", len(loaded.Services))
	}
	if loaded.Services["ai_core"].DisplayName != "SAP AI Core" {
		t.Errorf("Display name lost in round trip: %s", loaded.Services["ai_core"].DisplayName)
	}
	if len(loaded.Services["ai_core"].Docs) != 2 {
		t.Errorf("Docs lost in round trip: %d", len(loaded.Services["ai_core"].Docs))
	}
}
