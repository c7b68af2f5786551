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
	"os"

	"axonflow/assistant/shared/logger"
)

// FileBackend persists the corpus as a single JSON file
type FileBackend struct {
	path string
	log  *logger.Logger
}

// NewFileBackend creates a backend reading and writing the given JSON file
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{
		path: path,
		log:  logger.New("knowledge-file"),
	}
}

// Load reads the corpus from disk. A missing or unparseable file yields an
// empty corpus rather than an error so the service can start without a seed
// file and be populated through the management API.
func (b *FileBackend) Load(ctx context.Context) (*Corpus, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			b.log.Warn("", "Knowledge base file not found, starting empty", map[string]interface{}{
				"path": b.path,
			})
			return NewCorpus(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}

	var corpus Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		b.log.ErrorWithErr("", "Invalid JSON in knowledge base file, starting empty", err, map[string]interface{}{
			"path": b.path,
		})
		return NewCorpus(), nil
	}
	if corpus.Services == nil {
		corpus.Services = make(map[string]*ServiceEntry)
	}
	return &corpus, nil
}

// Save writes the corpus to disk
func (b *FileBackend) Save(ctx context.Context, corpus *Corpus) error {
	data, err := json.MarshalIndent(corpus, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.path, err)
	}
	return nil
}
