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

	"axonflow/assistant/orchestration"
)

// searchToolName is the single tool declared to the model
const searchToolName = "search_knowledge_base"

// questionPlaceholder is the template variable filled per request
const questionPlaceholder = "user_question"

// systemPrompt builds the fixed system instructions, enumerating the known
// service areas so the model can pick valid service keys
func systemPrompt(servicesSummary string) string {
	return fmt.Sprintf(`You are an SAP AI documentation expert assistant.
Your job is to help users find relevant SAP documentation and provide detailed explanations.

Available SAP AI services in the knowledge base:
%s

Instructions:
1. Use the search_knowledge_base tool to find relevant documentation
2. You may call the tool multiple times with different queries or service filters
3. After reviewing search results, respond with this JSON structure:
   - is_sap_ai: whether the question relates to SAP AI services
   - services: list of relevant service keys (e.g., ["ai_core", "genai_hub"])
   - doc_ids: IDs of the most relevant docs from search results (2-5 IDs)
   - answer: detailed 1-2 paragraph explanation that directly addresses the question
   - confidence: how well the available docs cover the question (0.0-1.0)
4. If the question is NOT about SAP AI services, set is_sap_ai to false with empty services/doc_ids lists and explain what you can help with instead`, servicesSummary)
}

// promptTemplate builds the two-message template sent with every run
func promptTemplate(servicesSummary string) []orchestration.Message {
	return []orchestration.Message{
		{Role: orchestration.RoleSystem, Content: systemPrompt(servicesSummary)},
		{Role: orchestration.RoleUser, Content: "{{?" + questionPlaceholder + "}}"},
	}
}

// searchTool declares the retrieval function to the model. The service
// parameter is constrained to the known service keys.
func searchTool(serviceKeys []string) orchestration.Tool {
	enum := make([]interface{}, len(serviceKeys))
	for i, key := range serviceKeys {
		enum[i] = key
	}

	return orchestration.Tool{
		Type: "function",
		Function: orchestration.ToolFunction{
			Name:        searchToolName,
			Description: "Search the SAP AI documentation knowledge base for relevant documentation entries. Returns matching docs with titles, URLs, and descriptions.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search terms related to the user's question",
					},
					"service": map[string]interface{}{
						"type":        "string",
						"enum":        enum,
						"description": "Optional service key to filter results",
					},
				},
				"required": []interface{}{"query"},
			},
		},
	}
}

// responseFormat declares the strict output schema for the final answer
func responseFormat() *orchestration.ResponseFormat {
	return &orchestration.ResponseFormat{
		Name:        "doc_assistant_result",
		Description: "Documentation assistant structured response",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"is_sap_ai":  map[string]interface{}{"type": "boolean"},
				"confidence": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
				"services":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"doc_ids":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"answer":     map[string]interface{}{"type": "string"},
			},
			"required":             []interface{}{"is_sap_ai", "confidence", "services", "doc_ids", "answer"},
			"additionalProperties": false,
		},
	}
}
