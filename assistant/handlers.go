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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"axonflow/assistant/knowledge"
	"axonflow/assistant/shared/logger"
)

// maxQuestionLength caps accepted question size
const maxQuestionLength = 2000

// Server holds the HTTP layer's dependencies
type Server struct {
	assistant *Assistant
	store     *knowledge.Store
	audit     *AuditLogger
	config    *Config
	log       *logger.Logger
}

// NewServer wires the HTTP layer
func NewServer(assistant *Assistant, store *knowledge.Store, audit *AuditLogger, config *Config) *Server {
	return &Server{
		assistant: assistant,
		store:     store,
		audit:     audit,
		config:    config,
		log:       logger.New("http"),
	}
}

// Router builds the service routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/api/v1/ask", s.askHandler).Methods("POST")

	r.HandleFunc("/api/v1/kb/entries", s.listEntriesHandler).Methods("GET")
	r.HandleFunc("/api/v1/kb/entries", s.adminOnly(s.createEntryHandler)).Methods("POST")
	r.HandleFunc("/api/v1/kb/entries/{id}", s.adminOnly(s.updateEntryHandler)).Methods("PUT")
	r.HandleFunc("/api/v1/kb/entries/{id}", s.adminOnly(s.deleteEntryHandler)).Methods("DELETE")
	r.HandleFunc("/api/v1/kb/services", s.listServicesHandler).Methods("GET")

	return r
}

type askRequest struct {
	Question     string `json:"question"`
	ShowPipeline bool   `json:"show_pipeline"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  "sap-ai-doc-assistant",
		"version":  "2.0.0",
		"degraded": s.assistant.Degraded(),
	})
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" || len(req.Question) > maxQuestionLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("question must be 1-%d characters", maxQuestionLength))
		return
	}

	s.log.Info(requestID, "Question received", map[string]interface{}{
		"question_length": len(req.Question),
		"show_pipeline":   req.ShowPipeline,
	})

	resp := s.assistant.Ask(r.Context(), requestID, req.Question, req.ShowPipeline)

	s.audit.Record(auditEntryFor(requestID, req.Question, resp, s.assistant.Degraded(), time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listEntriesHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Entries(r.Context(), r.URL.Query().Get("service"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load knowledge base")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type entryCreateRequest struct {
	ServiceKey  string   `json:"service_key"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Server) createEntryHandler(w http.ResponseWriter, r *http.Request) {
	var req entryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ServiceKey == "" || req.Title == "" || req.URL == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "service_key, title, url and description are required")
		return
	}

	docID, err := s.store.AddEntry(r.Context(), req.ServiceKey, knowledge.Document{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		if errors.Is(err, knowledge.ErrServiceNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("service '%s' not found in knowledge base", req.ServiceKey))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save entry")
		return
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusCreated, knowledge.Entry{
		ID:          docID,
		ServiceKey:  req.ServiceKey,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Tags:        tags,
	})
}

func (s *Server) updateEntryHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	var updates knowledge.EntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if updates.Title == nil && updates.URL == nil && updates.Description == nil && updates.Tags == nil {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := s.store.UpdateEntry(r.Context(), docID, updates); err != nil {
		if errors.Is(err, knowledge.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("entry '%s' not found", docID))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "updated", ID: docID})
}

func (s *Server) deleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	if err := s.store.DeleteEntry(r.Context(), docID); err != nil {
		if errors.Is(err, knowledge.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("entry '%s' not found", docID))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted", ID: docID})
}

func (s *Server) listServicesHandler(w http.ResponseWriter, r *http.Request) {
	services, err := s.store.Services(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load knowledge base")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// adminOnly guards knowledge-base mutations with a bearer JWT when an admin
// secret is configured. Without a secret the routes are open, matching
// single-tenant demo deployments.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := extractBearerToken(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "no authorization header")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(s.config.AdminSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func auditEntryFor(requestID, question string, resp *AskResponse, degraded bool, elapsed time.Duration) *AuditEntry {
	outcome := responseOutcome(resp, degraded)
	entry := &AuditEntry{
		RequestID:    requestID,
		Timestamp:    time.Now().UTC(),
		QuestionHash: hashQuestion(question),
		Outcome:      outcome,
		IsSAPAI:      resp.IsSAPAI,
		Confidence:   resp.Confidence,
		Services:     resp.Services,
		DurationMS:   elapsed.Milliseconds(),
	}
	if outcome == outcomeFailed || outcome == outcomeBlocked {
		entry.ErrorMessage = resp.Answer
	}
	if resp.Pipeline != nil {
		entry.Model = resp.Pipeline.LLM.Model
		entry.PromptTokens = resp.Pipeline.LLM.PromptTokens
		entry.CompletionTokens = resp.Pipeline.LLM.CompletionTokens
		entry.ToolCalls = len(resp.Pipeline.ToolCalls)
	}
	return entry
}

// responseOutcome classifies a response for metrics and auditing. The
// failure outcomes carry fixed answer texts, which makes them
// distinguishable without threading extra state through Ask.
func responseOutcome(resp *AskResponse, degraded bool) string {
	switch resp.Answer {
	case answerInvalidQuestion:
		return outcomeInvalidQuestion
	case answerBlocked:
		return outcomeBlocked
	case answerFailure:
		return outcomeFailed
	}
	if degraded {
		return outcomeMock
	}
	return outcomeAnswered
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
