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
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	mr := miniredis.RunT(t)

	backend, err := NewRedisBackend(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisBackend failed: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestRedisBackend_MissingKeyYieldsEmptyCorpus(t *testing.T) {
	backend := newTestRedisBackend(t)

	corpus, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(corpus.Services) != 0 {
		t.Errorf("Expected empty corpus, got %d services", len(corpus.Services))
	}
}

func TestRedisBackend_SaveLoadRoundTrip(t *testing.T) {
	backend := newTestRedisBackend(t)
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
	if len(loaded.Services["joule"].Docs) != 1 {
		t.Errorf("Docs lost in round trip: %d", len(loaded.Services["joule"].Docs))
	}
}

func TestRedisBackend_UnreachableServer(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), "127.0.0.1:1", "", 0)
	if err == nil {
		t.Error("Expected connection error for unreachable Redis")
	}
}

func TestRedisBackend_StoreIntegration(t *testing.T) {
	backend := newTestRedisBackend(t)
	ctx := context.Background()

	if err := backend.Save(ctx, testCorpus()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store := NewStore(backend)
	docID, err := store.AddEntry(ctx, "joule", Document{Title: "New Doc", URL: "u", Description: "d"})
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	// A fresh store sees the persisted mutation
	fresh := NewStore(backend)
	ids, err := fresh.AllDocIDs(ctx)
	if err != nil {
		t.Fatalf("AllDocIDs failed: %v", err)
	}
	if _, ok := ids[docID]; !ok {
		t.Errorf("Added doc %s not visible after reload", docID)
	}
}
