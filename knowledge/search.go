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
	"sort"
	"strings"
)

// MaxResults caps the number of results a single search returns
const MaxResults = 10

// minTokenLength drops noise tokens before scoring
const minTokenLength = 2

// Weights control the relative importance of each searchable field. A token
// may score in several fields at once; field scores are additive.
type Weights struct {
	Title              float64 `yaml:"title"`
	Tag                float64 `yaml:"tag"`
	Description        float64 `yaml:"description"`
	ServiceName        float64 `yaml:"service_name"`
	ServiceDescription float64 `yaml:"service_description"`
}

// DefaultWeights returns the tuned scoring weights
func DefaultWeights() Weights {
	return Weights{
		Title:              3.0,
		Tag:                2.5,
		Description:        2.0,
		ServiceName:        1.5,
		ServiceDescription: 0.5,
	}
}

// Engine ranks corpus documents against free-text queries
type Engine struct {
	store   *Store
	weights Weights
}

// NewEngine creates a search engine over the given store
func NewEngine(store *Store, weights Weights) *Engine {
	return &Engine{store: store, weights: weights}
}

// Search scores every document in scope against the query and returns up to
// MaxResults matches in descending relevance order. An unknown serviceFilter
// silently widens the scope to the whole corpus; an empty query matches
// nothing. The relevance score is stripped before return.
func (e *Engine) Search(ctx context.Context, query, serviceFilter string) ([]SearchResult, error) {
	corpus, err := e.store.Corpus(ctx)
	if err != nil {
		return nil, err
	}

	terms := []string{}
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len(t) >= minTokenLength {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}

	scope := sortedServiceKeys(corpus)
	if serviceFilter != "" {
		if _, ok := corpus.Services[serviceFilter]; ok {
			scope = []string{serviceFilter}
		}
	}

	results := []SearchResult{}
	for _, key := range scope {
		entry := corpus.Services[key]
		for _, doc := range entry.Docs {
			score := e.scoreDoc(doc, entry, terms)
			if score <= 0 {
				continue
			}
			results = append(results, SearchResult{
				ID:          doc.ID,
				Service:     key,
				Title:       doc.Title,
				URL:         doc.URL,
				Description: doc.Description,
				Tags:        doc.Tags,
				score:       score,
			})
		}
	}

	// Stable sort keeps corpus order for equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	for i := range results {
		results[i].score = 0
	}
	return results, nil
}

// scoreDoc accumulates weighted substring hits for every query term
func (e *Engine) scoreDoc(doc Document, entry *ServiceEntry, terms []string) float64 {
	title := strings.ToLower(doc.Title)
	desc := strings.ToLower(doc.Description)
	tags := make([]string, len(doc.Tags))
	for i, t := range doc.Tags {
		tags[i] = strings.ToLower(t)
	}
	svcName := strings.ToLower(entry.DisplayName)
	svcDesc := strings.ToLower(entry.Description)

	score := 0.0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += e.weights.Title
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				score += e.weights.Tag
				break
			}
		}
		if strings.Contains(desc, term) {
			score += e.weights.Description
		}
		if strings.Contains(svcName, term) {
			score += e.weights.ServiceName
		}
		if strings.Contains(svcDesc, term) {
			score += e.weights.ServiceDescription
		}
	}
	return score
}
