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
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"axonflow/assistant/knowledge"
	"axonflow/assistant/orchestration"
)

// Config holds the full service configuration. Values are resolved in
// three layers: code defaults, then an optional YAML file named by
// ASSISTANT_CONFIG, then environment variables.
type Config struct {
	Port   string `yaml:"port"`
	KBPath string `yaml:"kb_path"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	DatabaseURL string `yaml:"database_url"`

	// AdminSecret, when set, requires a bearer JWT signed with it on
	// knowledge-base mutation routes
	AdminSecret string `yaml:"admin_secret"`

	Orchestration struct {
		BaseURL       string `yaml:"base_url"`
		AuthToken     string `yaml:"auth_token"`
		ResourceGroup string `yaml:"resource_group"`
		APIVersion    string `yaml:"api_version"`
		Model         string `yaml:"model"`
		MaxTokens     int    `yaml:"max_tokens"`
	} `yaml:"orchestration"`

	SearchWeights knowledge.Weights `yaml:"search_weights"`
}

// LoadConfig resolves the service configuration
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:          "8080",
		KBPath:        "data/knowledge_base.json",
		SearchWeights: knowledge.DefaultWeights(),
	}
	cfg.Orchestration.APIVersion = orchestration.DefaultAPIVersion
	cfg.Orchestration.Model = "gpt-4o"
	cfg.Orchestration.MaxTokens = 1000

	if path := os.Getenv("ASSISTANT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Port, "PORT")
	setFromEnv(&cfg.KBPath, "KB_PATH")
	setFromEnv(&cfg.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	setFromEnv(&cfg.DatabaseURL, "DATABASE_URL")
	setFromEnv(&cfg.AdminSecret, "ADMIN_JWT_SECRET")
	setFromEnv(&cfg.Orchestration.BaseURL, "ORCHESTRATION_URL")
	setFromEnv(&cfg.Orchestration.AuthToken, "ORCHESTRATION_TOKEN")
	setFromEnv(&cfg.Orchestration.ResourceGroup, "ORCHESTRATION_RESOURCE_GROUP")
	setFromEnv(&cfg.Orchestration.APIVersion, "ORCHESTRATION_API_VERSION")
	setFromEnv(&cfg.Orchestration.Model, "ORCHESTRATION_MODEL")
	if v := os.Getenv("ORCHESTRATION_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Orchestration.MaxTokens = n
		}
	}
}

func setFromEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
