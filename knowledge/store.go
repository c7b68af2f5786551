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
	"fmt"
	"sort"
	"strings"
	"sync"

	"axonflow/assistant/shared/logger"
)

// Backend persists the corpus with whole-document read/write granularity
type Backend interface {
	Load(ctx context.Context) (*Corpus, error)
	Save(ctx context.Context, corpus *Corpus) error
}

// Store holds the process-wide corpus cache. The corpus is loaded lazily on
// first access and replaced wholesale on every mutation, so concurrent
// readers observe either the old or the new corpus, never a partial one.
type Store struct {
	backend Backend
	log     *logger.Logger

	mu     sync.RWMutex
	corpus *Corpus

	// writeMu serializes mutations so concurrent adds cannot generate
	// colliding document IDs
	writeMu sync.Mutex
}

// NewStore creates a store backed by the given persistence backend
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		log:     logger.New("knowledge-store"),
	}
}

// Corpus returns the cached corpus, loading it from the backend on first
// access. Callers must treat the returned corpus as read-only.
func (s *Store) Corpus(ctx context.Context) (*Corpus, error) {
	s.mu.RLock()
	if s.corpus != nil {
		c := s.corpus
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.corpus != nil {
		return s.corpus, nil
	}

	corpus, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	s.corpus = corpus
	s.log.Info("", "Loaded knowledge base", map[string]interface{}{
		"services": len(corpus.Services),
		"docs":     countDocs(corpus),
	})
	return s.corpus, nil
}

// Invalidate clears the cache so the next access reloads from the backend
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.corpus = nil
	s.mu.Unlock()
}

// AddEntry appends a new document to the given service and persists the
// corpus. It returns the generated document ID. The ID, if set on doc, is
// ignored.
func (s *Store) AddEntry(ctx context.Context, serviceKey string, doc Document) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	corpus, err := s.Corpus(ctx)
	if err != nil {
		return "", err
	}

	entry, ok := corpus.Services[serviceKey]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, serviceKey)
	}

	existing := allDocIDs(corpus)
	docID := fmt.Sprintf("%s_%02d", serviceKey, len(entry.Docs)+1)
	for counter := 1; ; counter++ {
		if _, taken := existing[docID]; !taken {
			break
		}
		docID = fmt.Sprintf("%s_%02d", serviceKey, len(entry.Docs)+counter+1)
	}

	next := corpus.clone()
	doc.ID = docID
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	next.Services[serviceKey].Docs = append(next.Services[serviceKey].Docs, doc)

	if err := s.replace(ctx, next); err != nil {
		return "", err
	}
	return docID, nil
}

// UpdateEntry applies the non-nil fields of updates to the document with the
// given ID and persists the corpus. Returns ErrEntryNotFound if no document
// has that ID.
func (s *Store) UpdateEntry(ctx context.Context, docID string, updates EntryUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	corpus, err := s.Corpus(ctx)
	if err != nil {
		return err
	}

	next := corpus.clone()
	for _, entry := range next.Services {
		for i := range entry.Docs {
			if entry.Docs[i].ID != docID {
				continue
			}
			if updates.Title != nil {
				entry.Docs[i].Title = *updates.Title
			}
			if updates.URL != nil {
				entry.Docs[i].URL = *updates.URL
			}
			if updates.Description != nil {
				entry.Docs[i].Description = *updates.Description
			}
			if updates.Tags != nil {
				entry.Docs[i].Tags = append([]string(nil), (*updates.Tags)...)
			}
			return s.replace(ctx, next)
		}
	}

	return fmt.Errorf("%w: %s", ErrEntryNotFound, docID)
}

// DeleteEntry removes the document with the given ID and persists the
// corpus. Returns ErrEntryNotFound if no document has that ID.
func (s *Store) DeleteEntry(ctx context.Context, docID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	corpus, err := s.Corpus(ctx)
	if err != nil {
		return err
	}

	next := corpus.clone()
	for _, entry := range next.Services {
		for i := range entry.Docs {
			if entry.Docs[i].ID != docID {
				continue
			}
			entry.Docs = append(entry.Docs[:i], entry.Docs[i+1:]...)
			return s.replace(ctx, next)
		}
	}

	return fmt.Errorf("%w: %s", ErrEntryNotFound, docID)
}

// Entries lists all documents, optionally filtered to one service key. An
// unknown filter yields an empty list.
func (s *Store) Entries(ctx context.Context, serviceFilter string) ([]Entry, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return nil, err
	}

	results := []Entry{}
	for _, key := range sortedServiceKeys(corpus) {
		if serviceFilter != "" && key != serviceFilter {
			continue
		}
		for _, doc := range corpus.Services[key].Docs {
			results = append(results, Entry{
				ID:          doc.ID,
				ServiceKey:  key,
				Title:       doc.Title,
				URL:         doc.URL,
				Description: doc.Description,
				Tags:        doc.Tags,
			})
		}
	}
	return results, nil
}

// Services lists the available service areas with their metadata
func (s *Store) Services(ctx context.Context) ([]ServiceSummary, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return nil, err
	}

	summaries := []ServiceSummary{}
	for _, key := range sortedServiceKeys(corpus) {
		entry := corpus.Services[key]
		summaries = append(summaries, ServiceSummary{
			Key:         key,
			DisplayName: entry.DisplayName,
			Description: entry.Description,
			DocCount:    len(entry.Docs),
		})
	}
	return summaries, nil
}

// DocsByIDs resolves document IDs to full entries. Unknown IDs are silently
// skipped; results follow corpus order, not input order.
func (s *Store) DocsByIDs(ctx context.Context, docIDs []string) ([]Entry, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(docIDs))
	for _, id := range docIDs {
		wanted[id] = true
	}

	results := []Entry{}
	for _, key := range sortedServiceKeys(corpus) {
		for _, doc := range corpus.Services[key].Docs {
			if !wanted[doc.ID] {
				continue
			}
			results = append(results, Entry{
				ID:          doc.ID,
				ServiceKey:  key,
				Title:       doc.Title,
				URL:         doc.URL,
				Description: doc.Description,
				Tags:        doc.Tags,
			})
		}
	}
	return results, nil
}

// AllDocIDs returns the set of every document ID in the corpus
func (s *Store) AllDocIDs(ctx context.Context) (map[string]struct{}, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	return allDocIDs(corpus), nil
}

// ServicesSummary renders the service catalog as one line per service, used
// to enumerate known service areas in the model's system instructions
func (s *Store) ServicesSummary(ctx context.Context) (string, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return "", err
	}

	lines := []string{}
	for _, key := range sortedServiceKeys(corpus) {
		entry := corpus.Services[key]
		lines = append(lines, fmt.Sprintf("- %s: %s - %s (%d docs)",
			key, entry.DisplayName, entry.Description, len(entry.Docs)))
	}
	return strings.Join(lines, "\n"), nil
}

// replace persists the new corpus and swaps the cached pointer. Caller must
// not hold the store lock.
func (s *Store) replace(ctx context.Context, next *Corpus) error {
	if err := s.backend.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save knowledge base: %w", err)
	}

	s.mu.Lock()
	s.corpus = next
	s.mu.Unlock()

	s.log.Info("", "Saved knowledge base", map[string]interface{}{
		"services": len(next.Services),
		"docs":     countDocs(next),
	})
	return nil
}

func sortedServiceKeys(c *Corpus) []string {
	keys := make([]string, 0, len(c.Services))
	for key := range c.Services {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func allDocIDs(c *Corpus) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, entry := range c.Services {
		for _, doc := range entry.Docs {
			ids[doc.ID] = struct{}{}
		}
	}
	return ids
}

func countDocs(c *Corpus) int {
	total := 0
	for _, entry := range c.Services {
		total += len(entry.Docs)
	}
	return total
}
