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

import "fmt"

// Message roles in a conversation
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a conversation history
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-initiated request to invoke a declared tool
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its JSON-encoded arguments
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares a callable function to the model
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function and its parameter schema
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ResponseFormat declares a strict JSON schema for the model's final output
type ResponseFormat struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
}

// Usage contains token usage for one model call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the model's reply for one orchestration run
type Completion struct {
	Model        string  `json:"model"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
	Usage        Usage   `json:"usage"`
}

// FilterScores holds the four content-safety category scores for one stage
type FilterScores struct {
	Hate     int `json:"hate"`
	SelfHarm int `json:"self_harm"`
	Sexual   int `json:"sexual"`
	Violence int `json:"violence"`
}

// MaskingResult is the output of the upstream masking module. Messages is
// the structured masked conversation when the service provides one; it may
// be empty, in which case MaskedTemplate carries the flat masked text.
type MaskingResult struct {
	MaskedTemplate string
	Messages       []Message
}

// FilterResult is the output of one content-filtering stage
type FilterResult struct {
	Message string
	Scores  FilterScores
}

// ModuleResults collects the per-module telemetry of one run, normalized
// across API versions
type ModuleResults struct {
	Templating      []Message
	InputMasking    *MaskingResult
	InputFiltering  *FilterResult
	OutputFiltering *FilterResult
}

// Result is the canonical outcome of a successful orchestration run. Both
// API versions decode into this shape.
type Result struct {
	RequestID  string
	Completion Completion
	Modules    ModuleResults
}

// ModerationError is returned when the content-safety layer blocks the
// input or output. It carries whatever partial module telemetry the
// rejection included.
type ModerationError struct {
	Location string
	Message  string
	Modules  ModuleResults
}

func (e *ModerationError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("content moderation blocked at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("content moderation blocked: %s", e.Message)
}

// APIError is a non-moderation failure from the orchestration service
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("orchestration API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}
