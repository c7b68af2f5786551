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

// v2Decoder handles the nested wire shape: the completion lives under
// final_result, per-module telemetry under intermediate_results, and error
// bodies carry their partial telemetry in an intermediate_results object.
// Content-safety scores use snake_case category keys.
type v2Decoder struct{}

func (d *v2Decoder) path() string {
	return "/v2/completion"
}

type v2Response struct {
	RequestID           string         `json:"request_id"`
	IntermediateResults v2Intermediate `json:"intermediate_results"`
	FinalResult         v2Completion   `json:"final_result"`
}

type v2Intermediate struct {
	Templating      []Message     `json:"templating"`
	InputMasking    *v2ModuleData `json:"input_masking"`
	InputFiltering  *v2ModuleData `json:"input_filtering"`
	OutputFiltering *v2ModuleData `json:"output_filtering"`
}

type v2ModuleData struct {
	Message string `json:"message"`
	Data    struct {
		AzureContentSafety *FilterScores `json:"azure_content_safety"`
		MaskedTemplate     string        `json:"masked_template"`
		Messages           []Message     `json:"messages"`
	} `json:"data"`
}

type v2Completion struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type v2Error struct {
	RequestID           string         `json:"request_id"`
	Code                int            `json:"code"`
	Message             string         `json:"message"`
	Location            string         `json:"location"`
	IntermediateResults v2Intermediate `json:"intermediate_results"`
}

func (d *v2Decoder) decode(body []byte) (*Result, error) {
	var resp v2Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid v2 response: %w", err)
	}
	if len(resp.FinalResult.Choices) == 0 {
		return nil, fmt.Errorf("v2 response has no choices")
	}

	choice := resp.FinalResult.Choices[0]
	return &Result{
		RequestID: resp.RequestID,
		Completion: Completion{
			Model:        resp.FinalResult.Model,
			Message:      choice.Message,
			FinishReason: choice.FinishReason,
			Usage:        resp.FinalResult.Usage,
		},
		Modules: resp.IntermediateResults.normalize(),
	}, nil
}

func (d *v2Decoder) decodeError(statusCode int, body []byte) error {
	var apiErr v2Error
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	if apiErr.Location != "" {
		return &ModerationError{
			Location: apiErr.Location,
			Message:  apiErr.Message,
			Modules:  apiErr.IntermediateResults.normalize(),
		}
	}
	return &APIError{StatusCode: statusCode, Code: apiErr.Code, Message: apiErr.Message}
}

func (m v2Intermediate) normalize() ModuleResults {
	out := ModuleResults{Templating: m.Templating}

	if m.InputMasking != nil {
		out.InputMasking = &MaskingResult{
			MaskedTemplate: m.InputMasking.Data.MaskedTemplate,
			Messages:       m.InputMasking.Data.Messages,
		}
	}
	if m.InputFiltering != nil {
		out.InputFiltering = &FilterResult{
			Message: m.InputFiltering.Message,
			Scores:  v2Scores(m.InputFiltering.Data.AzureContentSafety),
		}
	}
	if m.OutputFiltering != nil {
		out.OutputFiltering = &FilterResult{
			Message: m.OutputFiltering.Message,
			Scores:  v2Scores(m.OutputFiltering.Data.AzureContentSafety),
		}
	}
	return out
}

func v2Scores(scores *FilterScores) FilterScores {
	if scores == nil {
		return FilterScores{}
	}
	return *scores
}
