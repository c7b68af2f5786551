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

// Fixed user-facing answers for the non-success outcomes
const (
	answerInvalidQuestion = "Please provide a valid question."
	answerBlocked         = "Your question was blocked by content filtering. Please rephrase your question."
	answerFailure         = "Unable to process the question. Please try again or rephrase your question."
)

// Outcome labels for logging, metrics and the audit trail
const (
	outcomeAnswered        = "answered"
	outcomeInvalidQuestion = "invalid_question"
	outcomeBlocked         = "blocked"
	outcomeFailed          = "failed"
	outcomeMock            = "mock"
)

// Link is a resolved documentation reference returned to the caller
type Link struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// AskResponse is the structured answer for one question
type AskResponse struct {
	IsSAPAI    bool            `json:"is_sap_ai"`
	Confidence float64         `json:"confidence"`
	Services   []string        `json:"services"`
	Links      []Link          `json:"links"`
	Answer     string          `json:"answer"`
	Pipeline   *PipelineReport `json:"pipeline,omitempty"`
}

// modelOutput is the strict JSON schema the model must produce
type modelOutput struct {
	IsSAPAI    bool     `json:"is_sap_ai"`
	Confidence float64  `json:"confidence"`
	Services   []string `json:"services"`
	DocIDs     []string `json:"doc_ids"`
	Answer     string   `json:"answer"`
}

// PipelineReport is the per-request diagnostic trace of masking, content
// filtering, model usage and tool activity. DataMasking is null unless
// masking actually fired; ToolCalls is null when no tool was invoked, as
// opposed to an empty list when tools ran but matched nothing.
type PipelineReport struct {
	DataMasking      *MaskingDetails  `json:"data_masking"`
	ContentFiltering FilteringDetails `json:"content_filtering"`
	LLM              LLMDetails       `json:"llm"`
	MessagesToLLM    []ReportMessage  `json:"messages_to_llm"`
	ToolCalls        []ToolInvocation `json:"tool_calls"`
}

// MaskingDetails summarizes PII masking applied to the question
type MaskingDetails struct {
	OriginalQuery  string   `json:"original_query"`
	MaskedQuery    string   `json:"masked_query"`
	EntitiesMasked []string `json:"entities_masked"`
}

// FilteringDetails carries content-safety scores for both stages
type FilteringDetails struct {
	Input  FilterStageDetails `json:"input"`
	Output FilterStageDetails `json:"output"`
}

// FilterStageDetails holds the four category scores for one stage
type FilterStageDetails struct {
	Hate     int  `json:"hate"`
	SelfHarm int  `json:"self_harm"`
	Sexual   int  `json:"sexual"`
	Violence int  `json:"violence"`
	Passed   bool `json:"passed"`
}

// LLMDetails carries model usage; BlockedBy and Reason are set only on
// moderation rejections
type LLMDetails struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	BlockedBy        string `json:"blocked_by,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// ReportMessage is one conversation message as sent to the model
type ReportMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolInvocation records one executed tool call
type ToolInvocation struct {
	ToolName       string                 `json:"tool_name"`
	Arguments      map[string]interface{} `json:"arguments"`
	ResultCount    int                    `json:"result_count"`
	ResultsPreview []ResultPreview        `json:"results_preview"`
}

// ResultPreview is a truncated view of one tool result
type ResultPreview struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func invalidQuestionResponse() *AskResponse {
	return &AskResponse{
		IsSAPAI:    false,
		Confidence: 1.0,
		Services:   []string{},
		Links:      []Link{},
		Answer:     answerInvalidQuestion,
	}
}

func blockedResponse() *AskResponse {
	return &AskResponse{
		IsSAPAI:    false,
		Confidence: 0.0,
		Services:   []string{},
		Links:      []Link{},
		Answer:     answerBlocked,
	}
}

func failureResponse() *AskResponse {
	return &AskResponse{
		IsSAPAI:    false,
		Confidence: 0.0,
		Services:   []string{},
		Links:      []Link{},
		Answer:     answerFailure,
	}
}
