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

package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// APIVersionV1 selects the flat result/error wire shape
	APIVersionV1 = "v1"

	// APIVersionV2 selects the nested result/error wire shape
	APIVersionV2 = "v2"

	// DefaultAPIVersion is used when no version is configured
	DefaultAPIVersion = APIVersionV2

	// DefaultModel is the model requested when none is configured
	DefaultModel = "gpt-4o"

	// DefaultMaxTokens caps completion length when none is configured
	DefaultMaxTokens = 1000

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 60 * time.Second
)

// HTTPClient is an interface for HTTP client operations (enables testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config contains configuration for the orchestration client. Template,
// Tools and ResponseFormat are fixed per client and resent with every run,
// the service being stateless across calls.
type Config struct {
	BaseURL        string
	AuthToken      string
	ResourceGroup  string
	APIVersion     string
	Model          string
	MaxTokens      int
	Timeout        time.Duration
	Template       []Message
	Tools          []Tool
	ResponseFormat *ResponseFormat

	// FilterThreshold applies to all four content-safety categories.
	// 0 is the strictest setting (allow safe only).
	FilterThreshold int

	// MaskingEntities lists the PII entity types the upstream masking
	// module anonymizes. Empty disables the masking module.
	MaskingEntities []string
}

// RunInput carries the per-request values for one orchestration run.
// TemplateValues fill the client's template placeholders; History, when
// non-empty, continues an in-flight tool-calling conversation.
type RunInput struct {
	TemplateValues map[string]string
	History        []Message
}

// resultDecoder hides the wire differences between the two API versions.
// Exactly one implementation is bound at client construction; nothing
// outside this package ever branches on the version.
type resultDecoder interface {
	path() string
	decode(body []byte) (*Result, error)
	decodeError(statusCode int, body []byte) error
}

// Client calls the remote LLM-orchestration service
type Client struct {
	config  Config
	client  HTTPClient
	decoder resultDecoder
}

// NewClient creates an orchestration client. It fails when the endpoint or
// credentials are missing or the API version is unknown; callers treat that
// failure as permanent and fall back to offline operation.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("orchestration base URL is required")
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("orchestration auth token is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	var decoder resultDecoder
	switch cfg.APIVersion {
	case APIVersionV1:
		decoder = &v1Decoder{}
	case APIVersionV2:
		decoder = &v2Decoder{}
	default:
		return nil, fmt.Errorf("unknown orchestration API version: %s", cfg.APIVersion)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		decoder: decoder,
	}, nil
}

// SetHTTPClient overrides the HTTP client, used by tests
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.client = hc
}

// Run executes one orchestration call and returns the canonical result.
// A content-safety block is returned as *ModerationError, other upstream
// failures as *APIError or a wrapped transport error.
func (c *Client) Run(ctx context.Context, input RunInput) (*Result, error) {
	reqBody, err := json.Marshal(c.buildRequest(input))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+c.decoder.path(), bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	if c.config.ResourceGroup != "" {
		httpReq.Header.Set("AI-Resource-Group", c.config.ResourceGroup)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("orchestration request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.decoder.decodeError(resp.StatusCode, body)
	}

	result, err := c.decoder.decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, nil
}

// buildRequest assembles the wire request. Both API versions accept the
// same request shape; only responses diverge.
func (c *Client) buildRequest(input RunInput) wireRequest {
	modules := wireModules{
		Templating: wireTemplating{
			Template:       c.config.Template,
			Tools:          c.config.Tools,
			ResponseFormat: c.config.ResponseFormat,
		},
		LLM: wireLLM{
			ModelName:   c.config.Model,
			ModelParams: map[string]interface{}{"max_tokens": c.config.MaxTokens},
		},
		Filtering: &wireFiltering{
			Input:  wireFilterStage{Filters: []wireFilter{azureFilter(c.config.FilterThreshold)}},
			Output: wireFilterStage{Filters: []wireFilter{azureFilter(c.config.FilterThreshold)}},
		},
	}
	if len(c.config.MaskingEntities) > 0 {
		modules.Masking = &wireMasking{
			Providers: []wireMaskingProvider{{
				Type:     "sap_data_privacy_integration",
				Method:   "anonymization",
				Entities: maskingEntities(c.config.MaskingEntities),
			}},
		}
	}

	return wireRequest{
		OrchestrationConfig: wireConfig{ModuleConfigurations: modules},
		InputParams:         input.TemplateValues,
		MessagesHistory:     input.History,
	}
}

type wireRequest struct {
	OrchestrationConfig wireConfig        `json:"orchestration_config"`
	InputParams         map[string]string `json:"input_params"`
	MessagesHistory     []Message         `json:"messages_history,omitempty"`
}

type wireConfig struct {
	ModuleConfigurations wireModules `json:"module_configurations"`
}

type wireModules struct {
	Templating wireTemplating `json:"templating_module_config"`
	LLM        wireLLM        `json:"llm_module_config"`
	Filtering  *wireFiltering `json:"filtering_module_config,omitempty"`
	Masking    *wireMasking   `json:"masking_module_config,omitempty"`
}

type wireTemplating struct {
	Template       []Message       `json:"template"`
	Tools          []Tool          `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type wireLLM struct {
	ModelName   string                 `json:"model_name"`
	ModelParams map[string]interface{} `json:"model_params"`
}

type wireFiltering struct {
	Input  wireFilterStage `json:"input"`
	Output wireFilterStage `json:"output"`
}

type wireFilterStage struct {
	Filters []wireFilter `json:"filters"`
}

type wireFilter struct {
	Type   string         `json:"type"`
	Config map[string]int `json:"config"`
}

type wireMasking struct {
	Providers []wireMaskingProvider `json:"masking_providers"`
}

type wireMaskingProvider struct {
	Type     string              `json:"type"`
	Method   string              `json:"method"`
	Entities []map[string]string `json:"entities"`
}

func azureFilter(threshold int) wireFilter {
	return wireFilter{
		Type: "azure_content_safety",
		Config: map[string]int{
			"hate":      threshold,
			"self_harm": threshold,
			"sexual":    threshold,
			"violence":  threshold,
		},
	}
}

func maskingEntities(names []string) []map[string]string {
	entities := make([]map[string]string, len(names))
	for i, name := range names {
		entities[i] = map[string]string{"type": name}
	}
	return entities
}
