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
	"time"

	"github.com/go-redis/redis/v8"

	"axonflow/assistant/shared/logger"
)

const defaultRedisKey = "assistant:knowledge_base"

// RedisBackend persists the corpus as a single JSON value in Redis. The
// whole corpus is written on every save, matching the replace-wholesale
// discipline of the store.
type RedisBackend struct {
	client *redis.Client
	key    string
	log    *logger.Logger
}

// NewRedisBackend connects to Redis and verifies the connection
func NewRedisBackend(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisBackend{
		client: client,
		key:    defaultRedisKey,
		log:    logger.New("knowledge-redis"),
	}, nil
}

// Load reads the corpus from Redis. A missing key yields an empty corpus.
func (b *RedisBackend) Load(ctx context.Context) (*Corpus, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err == redis.Nil {
		b.log.Warn("", "Knowledge base key not found, starting empty", map[string]interface{}{
			"key": b.key,
		})
		return NewCorpus(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.key, err)
	}

	var corpus Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("invalid JSON at %s: %w", b.key, err)
	}
	if corpus.Services == nil {
		corpus.Services = make(map[string]*ServiceEntry)
	}
	return &corpus, nil
}

// Save writes the corpus to Redis
func (b *RedisBackend) Save(ctx context.Context, corpus *Corpus) error {
	data, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.key, err)
	}
	return nil
}

// Close releases the Redis connection
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
