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
	"encoding/json"
	"fmt"
)

// v1Decoder handles the legacy flat wire shape: module results and the
// completion sit at the top level of the response, and error bodies carry
// location and module_results as flat siblings of code/message.
type v1Decoder struct{}

func (d *v1Decoder) path() string {
	return "/completion"
}

type v1Response struct {
	RequestID           string          `json:"request_id"`
	ModuleResults       v1ModuleResults `json:"module_results"`
	OrchestrationResult v1Completion    `json:"orchestration_result"`
}

type v1ModuleResults struct {
	Templating      []Message     `json:"templating"`
	InputMasking    *v1ModuleData `json:"input_masking"`
	InputFiltering  *v1ModuleData `json:"input_filtering"`
	OutputFiltering *v1ModuleData `json:"output_filtering"`
}

type v1ModuleData struct {
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

type v1Completion struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type v1Error struct {
	RequestID     string          `json:"request_id"`
	Code          int             `json:"code"`
	Message       string          `json:"message"`
	Location      string          `json:"location"`
	ModuleResults v1ModuleResults `json:"module_results"`
}

func (d *v1Decoder) decode(body []byte) (*Result, error) {
	var resp v1Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid v1 response: %w", err)
	}
	if len(resp.OrchestrationResult.Choices) == 0 {
		return nil, fmt.Errorf("v1 response has no choices")
	}

	choice := resp.OrchestrationResult.Choices[0]
	return &Result{
		RequestID: resp.RequestID,
		Completion: Completion{
			Model:        resp.OrchestrationResult.Model,
			Message:      choice.Message,
			FinishReason: choice.FinishReason,
			Usage:        resp.OrchestrationResult.Usage,
		},
		Modules: resp.ModuleResults.normalize(),
	}, nil
}

func (d *v1Decoder) decodeError(statusCode int, body []byte) error {
	var apiErr v1Error
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	if apiErr.Location != "" {
		return &ModerationError{
			Location: apiErr.Location,
			Message:  apiErr.Message,
			Modules:  apiErr.ModuleResults.normalize(),
		}
	}
	return &APIError{StatusCode: statusCode, Code: apiErr.Code, Message: apiErr.Message}
}

// normalize converts the flat v1 module payloads into the canonical shape.
// V1 reports content-safety scores with CamelCase category keys and wraps
// output-stage scores inside a choices array.
func (m v1ModuleResults) normalize() ModuleResults {
	out := ModuleResults{Templating: m.Templating}

	if m.InputMasking != nil {
		masked, _ := m.InputMasking.Data["masked_template"].(string)
		out.InputMasking = &MaskingResult{
			MaskedTemplate: masked,
			Messages:       v1MaskedMessages(m.InputMasking.Data),
		}
	}
	if m.InputFiltering != nil {
		out.InputFiltering = &FilterResult{
			Message: m.InputFiltering.Message,
			Scores:  v1Scores(m.InputFiltering.Data["azure_content_safety"]),
		}
	}
	if m.OutputFiltering != nil {
		scores := m.OutputFiltering.Data["azure_content_safety"]
		if choices, ok := m.OutputFiltering.Data["choices"].([]interface{}); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]interface{}); ok {
				scores = choice["azure_content_safety"]
			}
		}
		out.OutputFiltering = &FilterResult{
			Message: m.OutputFiltering.Message,
			Scores:  v1Scores(scores),
		}
	}
	return out
}

func v1MaskedMessages(data map[string]interface{}) []Message {
	raw, ok := data["messages"].([]interface{})
	if !ok {
		return nil
	}
	messages := []Message{}
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		messages = append(messages, Message{Role: role, Content: content})
	}
	return messages
}

func v1Scores(raw interface{}) FilterScores {
	scores, ok := raw.(map[string]interface{})
	if !ok {
		return FilterScores{}
	}
	return FilterScores{
		Hate:     v1Score(scores, "Hate"),
		SelfHarm: v1Score(scores, "SelfHarm"),
		Sexual:   v1Score(scores, "Sexual"),
		Violence: v1Score(scores, "Violence"),
	}
}

func v1Score(scores map[string]interface{}, key string) int {
	if v, ok := scores[key].(float64); ok {
		return int(v)
	}
	return 0
}
