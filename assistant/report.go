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
	"regexp"

	"axonflow/assistant/orchestration"
)

// maskedKindPattern detects masked-entity placeholders in upstream artifacts
var maskedKindPattern = regexp.MustCompile(`MASKED_(\w+)`)

// maskedQueryPattern is the best-effort fallback for recovering the masked
// user question from a flat masked-template string
var maskedQueryPattern = regexp.MustCompile(`(?:` + questionPlaceholder + `["']?\s*:\s*["']?)(.+?)(?:["']?\s*\}|$)`)

// unknownValue is the default for missing moderation metadata
const unknownValue = "unknown"

// buildReport assembles the diagnostic trace for a successful run. Filter
// scores default to zero with passed=true; a request that was never
// filtered is reported as having passed.
func buildReport(originalQuery string, clientMasking *MaskingDetails, result *orchestration.Result, toolCalls []ToolInvocation) *PipelineReport {
	model := result.Completion.Model
	if model == "" {
		model = unknownValue
	}

	report := &PipelineReport{
		DataMasking: extractMasking(originalQuery, result.Modules.InputMasking, clientMasking),
		ContentFiltering: FilteringDetails{
			Input:  stageDetails(result.Modules.InputFiltering, true),
			Output: stageDetails(result.Modules.OutputFiltering, true),
		},
		LLM: LLMDetails{
			Model:            model,
			PromptTokens:     result.Completion.Usage.PromptTokens,
			CompletionTokens: result.Completion.Usage.CompletionTokens,
		},
		MessagesToLLM: extractMessages(result.Modules, nil),
		ToolCalls:     toolCalls,
	}
	return report
}

// buildModerationReport assembles a best-effort trace from a content-safety
// rejection. Both stages report passed=false; blocked_by and reason default
// to "unknown" when the rejection carried no metadata.
func buildModerationReport(originalQuery, maskedQuery string, clientMasking *MaskingDetails, modErr *orchestration.ModerationError) *PipelineReport {
	blockedBy := modErr.Location
	if blockedBy == "" {
		blockedBy = unknownValue
	}
	reason := modErr.Message
	if reason == "" {
		reason = unknownValue
	}

	fallback := []ReportMessage{{Role: orchestration.RoleUser, Content: maskedQuery}}

	return &PipelineReport{
		DataMasking: extractMasking(originalQuery, modErr.Modules.InputMasking, clientMasking),
		ContentFiltering: FilteringDetails{
			Input:  stageDetails(modErr.Modules.InputFiltering, false),
			Output: stageDetails(modErr.Modules.OutputFiltering, false),
		},
		LLM: LLMDetails{
			Model:     "blocked",
			BlockedBy: blockedBy,
			Reason:    reason,
		},
		MessagesToLLM: extractMessages(modErr.Modules, fallback),
		ToolCalls:     nil,
	}
}

// extractMasking builds the masking summary. The upstream artifact is
// preferred; the client-side guard result backs it up when the upstream
// module reported nothing. Returns nil when no masking fired at all.
func extractMasking(originalQuery string, masking *orchestration.MaskingResult, clientMasking *MaskingDetails) *MaskingDetails {
	if masking != nil {
		entities := maskedKinds(masking)
		if len(entities) > 0 {
			return &MaskingDetails{
				OriginalQuery:  originalQuery,
				MaskedQuery:    maskedQuery(originalQuery, masking),
				EntitiesMasked: entities,
			}
		}
	}
	return clientMasking
}

// maskedKinds collects the deduplicated entity kinds found in the masking
// artifact, in order of first appearance
func maskedKinds(masking *orchestration.MaskingResult) []string {
	seen := map[string]bool{}
	kinds := []string{}

	collect := func(text string) {
		for _, match := range maskedKindPattern.FindAllStringSubmatch(text, -1) {
			if !seen[match[1]] {
				seen[match[1]] = true
				kinds = append(kinds, match[1])
			}
		}
	}

	collect(masking.MaskedTemplate)
	for _, msg := range masking.Messages {
		collect(msg.Content)
	}
	return kinds
}

// maskedQuery recovers the masked user-facing question. Structured masked
// messages are preferred; a flat masked template falls back to pattern
// extraction, and the original query when neither yields anything.
func maskedQuery(originalQuery string, masking *orchestration.MaskingResult) string {
	for i := len(masking.Messages) - 1; i >= 0; i-- {
		if masking.Messages[i].Role == orchestration.RoleUser {
			return masking.Messages[i].Content
		}
	}

	if masking.MaskedTemplate != "" {
		if match := maskedQueryPattern.FindStringSubmatch(masking.MaskedTemplate); match != nil {
			return match[1]
		}
	}
	return originalQuery
}

func stageDetails(filter *orchestration.FilterResult, passed bool) FilterStageDetails {
	details := FilterStageDetails{Passed: passed}
	if filter != nil {
		details.Hate = filter.Scores.Hate
		details.SelfHarm = filter.Scores.SelfHarm
		details.Sexual = filter.Scores.Sexual
		details.Violence = filter.Scores.Violence
	}
	return details
}

// extractMessages returns the conversation as sent to the model, preferring
// the masked variants over the pre-masking templated messages
func extractMessages(modules orchestration.ModuleResults, fallback []ReportMessage) []ReportMessage {
	source := modules.Templating
	if modules.InputMasking != nil && len(modules.InputMasking.Messages) > 0 {
		source = modules.InputMasking.Messages
	}
	if len(source) == 0 {
		return fallback
	}

	messages := make([]ReportMessage, len(source))
	for i, msg := range source {
		messages[i] = ReportMessage{Role: msg.Role, Content: msg.Content}
	}
	return messages
}
