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

package assistant

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"axonflow/assistant/knowledge"
	"axonflow/assistant/orchestration"
	"axonflow/assistant/shared/logger"
)

// defaultMaskingEntities is the upstream anonymization profile. The
// client-side guard covers NRIC on its own; the upstream module handles
// the broader PII set.
var defaultMaskingEntities = []string{
	"profile-person",
	"profile-email",
	"profile-phone",
	"profile-address",
	"profile-sapids-internal",
	"profile-sapids-public",
}

// Run starts the assistant service. It blocks until the HTTP server
// exits.
func Run() {
	appLog := logger.New("assistant")

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeBackend, err := buildStore(ctx, cfg, appLog)
	if err != nil {
		log.Fatalf("Failed to initialize knowledge store: %v", err)
	}
	defer closeBackend()

	engine := knowledge.NewEngine(store, cfg.SearchWeights)

	client := buildClient(ctx, cfg, store, appLog)

	assistant := NewAssistant(client, store, engine)
	if assistant.Degraded() {
		appLog.Warn("", "Orchestration service not configured, running in mock mode", nil)
	}

	audit := NewAuditLogger(cfg.DatabaseURL)
	defer audit.Close()

	server := NewServer(assistant, store, audit, cfg)
	r := server.Router()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(r)

	appLog.Info("", "Assistant service starting", map[string]interface{}{
		"port":     cfg.Port,
		"degraded": assistant.Degraded(),
	})
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}

// buildStore selects the corpus backend. Redis wins when configured so
// multiple replicas share one corpus; the file backend serves
// single-node deployments.
func buildStore(ctx context.Context, cfg *Config, appLog *logger.Logger) (*knowledge.Store, func(), error) {
	if cfg.Redis.Addr != "" {
		backend, err := knowledge.NewRedisBackend(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		appLog.Info("", "Using Redis knowledge-base backend", map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
		return knowledge.NewStore(backend), func() { backend.Close() }, nil
	}

	appLog.Info("", "Using file knowledge-base backend", map[string]interface{}{
		"path": cfg.KBPath,
	})
	return knowledge.NewStore(knowledge.NewFileBackend(cfg.KBPath)), func() {}, nil
}

// buildClient constructs the orchestration client from config. Any
// failure here leaves the assistant in mock mode rather than aborting
// startup, so the service stays usable without upstream credentials.
func buildClient(ctx context.Context, cfg *Config, store *knowledge.Store, appLog *logger.Logger) *orchestration.Client {
	if cfg.Orchestration.BaseURL == "" || cfg.Orchestration.AuthToken == "" {
		return nil
	}

	summary, err := store.ServicesSummary(ctx)
	if err != nil {
		appLog.ErrorWithErr("", "Failed to build services summary for prompt", err, nil)
		return nil
	}
	services, err := store.Services(ctx)
	if err != nil {
		appLog.ErrorWithErr("", "Failed to list services for tool schema", err, nil)
		return nil
	}
	keys := make([]string, 0, len(services))
	for _, svc := range services {
		keys = append(keys, svc.Key)
	}

	client, err := orchestration.NewClient(orchestration.Config{
		BaseURL:         cfg.Orchestration.BaseURL,
		AuthToken:       cfg.Orchestration.AuthToken,
		ResourceGroup:   cfg.Orchestration.ResourceGroup,
		APIVersion:      cfg.Orchestration.APIVersion,
		Model:           cfg.Orchestration.Model,
		MaxTokens:       cfg.Orchestration.MaxTokens,
		Template:        promptTemplate(summary),
		Tools:           []orchestration.Tool{searchTool(keys)},
		ResponseFormat:  responseFormat(),
		MaskingEntities: defaultMaskingEntities,
	})
	if err != nil {
		appLog.ErrorWithErr("", "Failed to construct orchestration client", err, nil)
		return nil
	}
	return client
}
