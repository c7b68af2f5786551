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
	"fmt"
	"strings"

	"axonflow/assistant/knowledge"
	"axonflow/assistant/shared/logger"
)

// mockCoverage names the covered service areas in mock answers
const mockCoverage = "SAP AI Core, Generative AI Hub, Joule, HANA Cloud Vector Engine, AI Launchpad, and Document Information Extraction"

// nonSAPPatterns short-circuit to a firm negative classification before any
// service matching is attempted
var nonSAPPatterns = []string{
	"password", "laptop", "computer", "printer", "wifi",
	"weather", "email setup", "vpn", "software install",
	"recipe", "movie", "sports",
}

// genericSAPTerms indicate an SAP question that matched no specific service
var genericSAPTerms = []string{"sap", "btp", "cloud foundry", "fiori"}

// serviceKeywords maps service keys to trigger keywords, ordered most
// specific first so narrow services win over broad ones
var serviceKeywords = []struct {
	key      string
	keywords []string
}{
	{"hana_cloud_vector", []string{
		"hana vector", "vector engine", "real_vector", "cosine_similarity",
		"l2distance", "vector index", "embedding", "hana embedding",
		"similarity search", "vector column", "vector", "hana cloud",
	}},
	{"document_processing", []string{
		"document extraction", "dox", "document information",
		"invoice", "document processing", "schema extraction",
		"purchase order extraction", "extract data",
	}},
	{"joule", []string{
		"joule", "joule studio", "joule skill", "joule action",
		"joule capability",
	}},
	{"ai_launchpad", []string{
		"ai launchpad", "launchpad", "mlops", "ml operations",
		"model registry", "ai monitoring",
	}},
	{"genai_hub", []string{
		"orchestration", "genai hub", "generative ai hub", "sdk",
		"content filter", "data masking", "grounding", "prompt registry",
		"rag", "retrieval augmented",
	}},
	{"ai_core", []string{
		"ai core", "deploy", "resource group",
		"serving template", "workflow template", "docker registry",
		"ai api", "execution", "scenario",
	}},
}

// MockEngine is the deterministic substitute for the whole orchestration
// path, used whenever no live model connection exists. Classification is
// keyword-based; link generation reuses the real search engine.
type MockEngine struct {
	store  *knowledge.Store
	engine *knowledge.Engine
	log    *logger.Logger
}

// NewMockEngine creates the fallback engine over the real corpus
func NewMockEngine(store *knowledge.Store, engine *knowledge.Engine) *MockEngine {
	return &MockEngine{
		store:  store,
		engine: engine,
		log:    logger.New("mock-engine"),
	}
}

// Ask answers a question with canned classifications and real search links
func (m *MockEngine) Ask(ctx context.Context, question string) *AskResponse {
	queryLower := strings.ToLower(question)

	for _, pattern := range nonSAPPatterns {
		if strings.Contains(queryLower, pattern) {
			return &AskResponse{
				IsSAPAI:    false,
				Confidence: 0.90,
				Services:   []string{},
				Links:      []Link{},
				Answer:     "[MOCK] This doesn't appear to be related to SAP AI services. I can help with " + mockCoverage + ".",
			}
		}
	}

	matched := []string{}
	for _, svc := range serviceKeywords {
		for _, kw := range svc.keywords {
			if strings.Contains(queryLower, kw) {
				matched = append(matched, svc.key)
				break
			}
		}
	}

	if len(matched) > 0 {
		return m.serviceResponse(ctx, question, matched)
	}

	for _, term := range genericSAPTerms {
		if strings.Contains(queryLower, term) {
			return &AskResponse{
				IsSAPAI:    true,
				Confidence: 0.60,
				Services:   []string{},
				Links:      []Link{},
				Answer:     "[MOCK] Your question seems related to SAP but I couldn't match it to a specific AI service. I cover: " + mockCoverage + ".",
			}
		}
	}

	return &AskResponse{
		IsSAPAI:    false,
		Confidence: 0.80,
		Services:   []string{},
		Links:      []Link{},
		Answer:     "[MOCK] This doesn't appear to be related to SAP AI services. I can help with " + mockCoverage + ".",
	}
}

// serviceResponse runs the real search engine for link generation
func (m *MockEngine) serviceResponse(ctx context.Context, question string, matched []string) *AskResponse {
	links := []Link{}
	results, err := m.engine.Search(ctx, question, "")
	if err != nil {
		m.log.ErrorWithErr("", "Mock search failed", err, nil)
	} else {
		for _, r := range results {
			links = append(links, Link{Title: r.Title, URL: r.URL, Description: r.Description})
			if len(links) == 5 {
				break
			}
		}
	}

	names := []string{}
	if summaries, err := m.store.Services(ctx); err == nil {
		byKey := map[string]string{}
		for _, s := range summaries {
			byKey[s.Key] = s.DisplayName
		}
		for _, key := range matched {
			if name, ok := byKey[key]; ok {
				names = append(names, name)
			}
		}
	}

	return &AskResponse{
		IsSAPAI:    true,
		Confidence: 0.85,
		Services:   matched,
		Links:      links,
		Answer: fmt.Sprintf("[MOCK] I can help you with %s. Based on your question, I've found several relevant documentation resources. Please review the linked docs for detailed guidance.",
			strings.Join(names, ", ")),
	}
}

// Pipeline fabricates a diagnostic trace for offline operation. The
// client-side masking summary is passed through so PII redaction stays
// visible in demos without a live pipeline.
func (m *MockEngine) Pipeline(maskedQuestion string, clientMasking *MaskingDetails) *PipelineReport {
	return &PipelineReport{
		DataMasking: clientMasking,
		ContentFiltering: FilteringDetails{
			Input:  FilterStageDetails{Passed: true},
			Output: FilterStageDetails{Passed: true},
		},
		LLM: LLMDetails{Model: "mock"},
		MessagesToLLM: []ReportMessage{
			{Role: "system", Content: "[MOCK] System prompt would appear here"},
			{Role: "user", Content: maskedQuestion},
		},
		ToolCalls: []ToolInvocation{{
			ToolName:    searchToolName,
			Arguments:   map[string]interface{}{"query": maskedQuestion},
			ResultCount: 3,
			ResultsPreview: []ResultPreview{
				{ID: "mock_01", Title: "[MOCK] Matching doc 1"},
				{ID: "mock_02", Title: "[MOCK] Matching doc 2"},
			},
		}},
	}
}
