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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"axonflow/assistant/knowledge"
	"axonflow/assistant/orchestration"
	"axonflow/assistant/shared/logger"
)

// toolPreviewLimit caps the result previews recorded per tool invocation
const toolPreviewLimit = 5

// Assistant drives the agentic question-answering flow: first model call,
// tool execution, second model call and response formatting. A nil
// orchestration client puts the assistant in permanent degraded mode where
// every request is served by the mock engine.
type Assistant struct {
	client *orchestration.Client
	store  *knowledge.Store
	engine *knowledge.Engine
	guard  *PIIGuard
	mock   *MockEngine
	log    *logger.Logger
}

// NewAssistant wires the assistant. client may be nil for degraded mode.
func NewAssistant(client *orchestration.Client, store *knowledge.Store, engine *knowledge.Engine) *Assistant {
	return &Assistant{
		client: client,
		store:  store,
		engine: engine,
		guard:  NewPIIGuard(),
		mock:   NewMockEngine(store, engine),
		log:    logger.New("assistant"),
	}
}

// Degraded reports whether the assistant runs without a live model
func (a *Assistant) Degraded() bool {
	return a.client == nil
}

// Ask answers one question. Every failure path yields a well-formed
// response; errors never propagate to the caller.
func (a *Assistant) Ask(ctx context.Context, requestID, question string, includePipeline bool) *AskResponse {
	start := time.Now()

	if strings.TrimSpace(question) == "" {
		observeRequest(outcomeInvalidQuestion, start)
		return invalidQuestionResponse()
	}

	masked, entities := a.guard.Mask(question)
	var clientMasking *MaskingDetails
	if len(entities) > 0 {
		clientMasking = &MaskingDetails{
			OriginalQuery:  question,
			MaskedQuery:    masked,
			EntitiesMasked: entities,
		}
		promMaskedQueries.Inc()
		a.log.Info(requestID, "Masked sensitive identifiers in question", map[string]interface{}{
			"entities": entities,
		})
	}

	if a.client == nil {
		resp := a.mock.Ask(ctx, masked)
		if includePipeline {
			resp.Pipeline = a.mock.Pipeline(masked, clientMasking)
		}
		observeRequest(outcomeMock, start)
		return resp
	}

	resp, err := a.runWithTools(ctx, requestID, question, masked, clientMasking, includePipeline)
	if err == nil {
		observeRequest(outcomeAnswered, start)
		a.log.InfoWithDuration(requestID, "Question answered", float64(time.Since(start).Milliseconds()), map[string]interface{}{
			"is_sap_ai": resp.IsSAPAI,
			"links":     len(resp.Links),
		})
		return resp
	}

	var modErr *orchestration.ModerationError
	if errors.As(err, &modErr) {
		a.log.Warn(requestID, "Question blocked by content filtering", map[string]interface{}{
			"location": modErr.Location,
		})
		promBlockedRequests.Inc()
		observeRequest(outcomeBlocked, start)

		resp := blockedResponse()
		if includePipeline {
			resp.Pipeline = buildModerationReport(question, masked, clientMasking, modErr)
		}
		return resp
	}

	a.log.ErrorWithErr(requestID, "Failed to answer question", err, nil)
	observeRequest(outcomeFailed, start)
	return failureResponse()
}

// runWithTools executes the two-phase conversation. The model may request
// zero or more tool invocations on its first reply; all requested tools run
// synchronously, in the order listed, before the second call.
func (a *Assistant) runWithTools(ctx context.Context, requestID, question, masked string, clientMasking *MaskingDetails, includePipeline bool) (*AskResponse, error) {
	templateValues := map[string]string{questionPlaceholder: masked}

	result, err := a.client.Run(ctx, orchestration.RunInput{TemplateValues: templateValues})
	if err != nil {
		return nil, err
	}

	var toolRecords []ToolInvocation
	msg := result.Completion.Message

	if len(msg.ToolCalls) > 0 {
		history := append([]orchestration.Message{}, result.Modules.Templating...)
		history = append(history, msg)

		for _, tc := range msg.ToolCalls {
			record, toolMsg, err := a.executeTool(ctx, requestID, tc)
			if err != nil {
				return nil, err
			}
			history = append(history, toolMsg)
			toolRecords = append(toolRecords, record)
		}

		result, err = a.client.Run(ctx, orchestration.RunInput{
			TemplateValues: templateValues,
			History:        history,
		})
		if err != nil {
			return nil, err
		}
	}

	var output modelOutput
	if err := json.Unmarshal([]byte(result.Completion.Message.Content), &output); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	resp, err := a.formatResponse(ctx, output)
	if err != nil {
		return nil, err
	}
	if includePipeline {
		resp.Pipeline = buildReport(question, clientMasking, result, toolRecords)
	}
	return resp, nil
}

// executeTool runs one requested tool call against the search engine and
// returns the invocation record plus the tool-result message for history
func (a *Assistant) executeTool(ctx context.Context, requestID string, tc orchestration.ToolCall) (ToolInvocation, orchestration.Message, error) {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return ToolInvocation{}, orchestration.Message{}, fmt.Errorf("invalid tool arguments: %w", err)
	}
	query, _ := args["query"].(string)
	service, _ := args["service"].(string)

	results, err := a.engine.Search(ctx, query, service)
	if err != nil {
		return ToolInvocation{}, orchestration.Message{}, fmt.Errorf("tool execution failed: %w", err)
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return ToolInvocation{}, orchestration.Message{}, fmt.Errorf("failed to marshal tool results: %w", err)
	}

	preview := []ResultPreview{}
	for i, r := range results {
		if i == toolPreviewLimit {
			break
		}
		preview = append(preview, ResultPreview{ID: r.ID, Title: r.Title})
	}

	promToolExecutions.Inc()
	a.log.Info(requestID, "Executed tool call", map[string]interface{}{
		"tool":    tc.Function.Name,
		"query":   query,
		"service": service,
		"results": len(results),
	})

	record := ToolInvocation{
		ToolName:       tc.Function.Name,
		Arguments:      args,
		ResultCount:    len(results),
		ResultsPreview: preview,
	}
	toolMsg := orchestration.Message{
		Role:       orchestration.RoleTool,
		Content:    string(payload),
		ToolCallID: tc.ID,
	}
	return record, toolMsg, nil
}

// formatResponse validates the model's doc IDs against the corpus and
// resolves the survivors to link entries. Unknown IDs are silently dropped.
func (a *Assistant) formatResponse(ctx context.Context, output modelOutput) (*AskResponse, error) {
	valid, err := a.store.AllDocIDs(ctx)
	if err != nil {
		return nil, err
	}

	kept := []string{}
	for _, id := range output.DocIDs {
		if _, ok := valid[id]; ok {
			kept = append(kept, id)
		}
	}

	links := []Link{}
	if len(kept) > 0 {
		docs, err := a.store.DocsByIDs(ctx, kept)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			links = append(links, Link{Title: d.Title, URL: d.URL, Description: d.Description})
		}
	}

	services := output.Services
	if services == nil {
		services = []string{}
	}

	return &AskResponse{
		IsSAPAI:    output.IsSAPAI,
		Confidence: output.Confidence,
		Services:   services,
		Links:      links,
		Answer:     output.Answer,
	}, nil
}
