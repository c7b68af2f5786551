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

import "errors"

// Document is a single documentation entry owned by one service
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// ServiceEntry groups the documentation entries of one service area
type ServiceEntry struct {
	DisplayName string     `json:"display_name"`
	Description string     `json:"description"`
	Docs        []Document `json:"docs"`
}

// Corpus maps service keys to their documentation entries.
// Document IDs are unique across all services.
type Corpus struct {
	Services map[string]*ServiceEntry `json:"services"`
}

// SearchResult is a query-scoped projection of a Document. The relevance
// score is internal; callers only see the ordering it produced.
type SearchResult struct {
	ID          string   `json:"id"`
	Service     string   `json:"service"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	score float64
}

// ServiceSummary is a lightweight listing of one service area
type ServiceSummary struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	DocCount    int    `json:"doc_count"`
}

// Entry is a flattened view of a Document carrying its owning service key,
// used by the management API and by doc-ID lookups
type Entry struct {
	ID          string   `json:"id"`
	ServiceKey  string   `json:"service_key"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// EntryUpdate carries the mutable fields of a Document. Nil fields are
// left unchanged.
type EntryUpdate struct {
	Title       *string   `json:"title"`
	URL         *string   `json:"url"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

var (
	// ErrServiceNotFound is returned when a CRUD operation references an
	// unknown service key
	ErrServiceNotFound = errors.New("service not found")

	// ErrEntryNotFound is returned when an update or delete references a
	// document ID that does not exist in the corpus
	ErrEntryNotFound = errors.New("entry not found")
)

// NewCorpus returns an empty corpus
func NewCorpus() *Corpus {
	return &Corpus{Services: make(map[string]*ServiceEntry)}
}

// clone returns a deep copy of the corpus. Mutations operate on a copy and
// replace the cached pointer wholesale so concurrent readers never observe a
// partially-written corpus.
func (c *Corpus) clone() *Corpus {
	out := NewCorpus()
	for key, entry := range c.Services {
		docs := make([]Document, len(entry.Docs))
		for i, d := range entry.Docs {
			docs[i] = d
			docs[i].Tags = append([]string(nil), d.Tags...)
		}
		out.Services[key] = &ServiceEntry{
			DisplayName: entry.DisplayName,
			Description: entry.Description,
			Docs:        docs,
		}
	}
	return out
}
