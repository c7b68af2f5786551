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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/assistant/knowledge"
)

func newTestServer(t *testing.T, adminSecret string) *Server {
	t.Helper()
	store, engine := fixtureStore()
	cfg := &Config{AdminSecret: adminSecret}
	return NewServer(NewAssistant(nil, store, engine), store, NewAuditLogger(""), cfg)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "GET", "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sap-ai-doc-assistant", body["service"])
	assert.Equal(t, true, body["degraded"])
}

func TestAskHandler(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "POST", "/api/v1/ask", askRequest{Question: "What is Joule?"}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsSAPAI)
	assert.True(t, strings.HasPrefix(resp.Answer, "[MOCK] "))
	assert.Nil(t, resp.Pipeline)
}

func TestAskHandler_ShowPipeline(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "POST", "/api/v1/ask", askRequest{Question: "What is Joule?", ShowPipeline: true}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pipeline)
	assert.Equal(t, "mock", resp.Pipeline.LLM.Model)
}

func TestAskHandler_Validation(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name     string
		question string
	}{
		{"empty question", ""},
		{"oversized question", strings.Repeat("a", maxQuestionLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, "POST", "/api/v1/ask", askRequest{Question: tt.question}, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListEntriesHandler(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "GET", "/api/v1/kb/entries", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []knowledge.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 5)

	rec = doRequest(t, s, "GET", "/api/v1/kb/entries?service=joule", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "joule_studio_01", entries[0].ID)
}

func TestCreateEntryHandler(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "POST", "/api/v1/kb/entries", entryCreateRequest{
		ServiceKey:  "joule",
		Title:       "Joule Agents",
		URL:         "https://help.sap.com/joule/agents",
		Description: "Autonomous AI agents",
		Tags:        []string{"agents"},
	}, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var entry knowledge.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "joule_02", entry.ID)
	assert.Equal(t, "joule", entry.ServiceKey)
}

func TestCreateEntryHandler_UnknownService(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "POST", "/api/v1/kb/entries", entryCreateRequest{
		ServiceKey:  "nonexistent",
		Title:       "t",
		URL:         "u",
		Description: "d",
	}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEntryHandler_MissingFields(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "POST", "/api/v1/kb/entries", entryCreateRequest{ServiceKey: "joule"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEntryHandler(t *testing.T) {
	s := newTestServer(t, "")

	title := "Joule Studio Guide"
	rec := doRequest(t, s, "PUT", "/api/v1/kb/entries/joule_studio_01", knowledge.EntryUpdate{Title: &title}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "updated", resp.Status)
	assert.Equal(t, "joule_studio_01", resp.ID)
}

func TestUpdateEntryHandler_NoFields(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "PUT", "/api/v1/kb/entries/joule_studio_01", map[string]string{}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEntryHandler_NotFound(t *testing.T) {
	s := newTestServer(t, "")

	title := "t"
	rec := doRequest(t, s, "PUT", "/api/v1/kb/entries/missing_99", knowledge.EntryUpdate{Title: &title}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEntryHandler(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "DELETE", "/api/v1/kb/entries/joule_studio_01", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deleted", resp.Status)

	rec = doRequest(t, s, "DELETE", "/api/v1/kb/entries/joule_studio_01", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListServicesHandler(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, "GET", "/api/v1/kb/services", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var services []knowledge.ServiceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &services))
	require.Len(t, services, 3)
	assert.Equal(t, "ai_core", services[0].Key)
}

func TestAdminAuth(t *testing.T) {
	const secret = "test-secret"
	s := newTestServer(t, secret)

	body := entryCreateRequest{
		ServiceKey:  "joule",
		Title:       "t",
		URL:         "u",
		Description: "d",
	}

	t.Run("no token", func(t *testing.T) {
		rec := doRequest(t, s, "POST", "/api/v1/kb/entries", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := doRequest(t, s, "POST", "/api/v1/kb/entries", body, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signedToken(t, "other-secret")
		rec := doRequest(t, s, "POST", "/api/v1/kb/entries", body, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signedToken(t, secret)
		rec := doRequest(t, s, "POST", "/api/v1/kb/entries", body, token)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("reads stay open", func(t *testing.T) {
		rec := doRequest(t, s, "GET", "/api/v1/kb/entries", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.New(jwt.SigningMethodHS256)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuditEntryFor(t *testing.T) {
	answered := &AskResponse{
		IsSAPAI:    true,
		Confidence: 0.95,
		Services:   []string{"ai_core"},
		Answer:     "SAP AI Core is a runtime.",
		Pipeline: &PipelineReport{
			LLM:       LLMDetails{Model: "gpt-4o", PromptTokens: 100, CompletionTokens: 30},
			ToolCalls: []ToolInvocation{{ToolName: searchToolName}},
		},
	}
	entry := auditEntryFor("req-1", "What is AI Core?", answered, false, 250*time.Millisecond)

	assert.Equal(t, outcomeAnswered, entry.Outcome)
	assert.Equal(t, hashQuestion("What is AI Core?"), entry.QuestionHash)
	assert.Equal(t, "gpt-4o", entry.Model)
	assert.Equal(t, 100, entry.PromptTokens)
	assert.Equal(t, 1, entry.ToolCalls)
	assert.Equal(t, int64(250), entry.DurationMS)
	assert.Empty(t, entry.ErrorMessage)

	failed := auditEntryFor("req-2", "q", failureResponse(), false, time.Millisecond)
	assert.Equal(t, outcomeFailed, failed.Outcome)
	assert.Equal(t, answerFailure, failed.ErrorMessage)

	blocked := auditEntryFor("req-3", "q", blockedResponse(), false, time.Millisecond)
	assert.Equal(t, outcomeBlocked, blocked.Outcome)
	assert.Equal(t, answerBlocked, blocked.ErrorMessage)
}

func TestResponseOutcome(t *testing.T) {
	tests := []struct {
		name     string
		resp     *AskResponse
		degraded bool
		want     string
	}{
		{"answered", &AskResponse{Answer: "SAP AI Core is a runtime."}, false, outcomeAnswered},
		{"invalid", invalidQuestionResponse(), false, outcomeInvalidQuestion},
		{"blocked", blockedResponse(), false, outcomeBlocked},
		{"failed", failureResponse(), false, outcomeFailed},
		{"mock", &AskResponse{Answer: "[MOCK] answer"}, true, outcomeMock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseOutcome(tt.resp, tt.degraded))
		})
	}
}
