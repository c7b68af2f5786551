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
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"axonflow/assistant/shared/logger"
)

const (
	auditQueueSize  = 10000
	auditBatchSize  = 100
	auditFlushEvery = 10 * time.Second
)

// AuditEntry records the outcome of one ask request. The question itself is
// stored only as a hash; the question text may contain PII.
type AuditEntry struct {
	RequestID        string
	Timestamp        time.Time
	QuestionHash     string
	Outcome          string
	IsSAPAI          bool
	Confidence       float64
	Services         []string
	Model            string
	PromptTokens     int
	CompletionTokens int
	ToolCalls        int
	DurationMS       int64
	ErrorMessage     string
}

// AuditLogger writes ask outcomes to Postgres in batches. Entries are
// queued without blocking the request path; a full queue drops the entry
// with a warning rather than stalling a request. Without a database URL the
// logger is a no-op.
type AuditLogger struct {
	db    *sql.DB
	log   *logger.Logger
	queue chan *AuditEntry

	mu      sync.Mutex
	pending []*AuditEntry

	wg       sync.WaitGroup
	shutdown chan struct{}
}

// NewAuditLogger connects to Postgres and starts the background writer.
// An empty databaseURL or a failed connection yields a no-op logger.
func NewAuditLogger(databaseURL string) *AuditLogger {
	l := &AuditLogger{
		log:      logger.New("audit"),
		queue:    make(chan *AuditEntry, auditQueueSize),
		shutdown: make(chan struct{}),
	}

	if databaseURL == "" {
		return l
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		l.log.ErrorWithErr("", "Failed to open audit database, auditing disabled", err, nil)
		return l
	}
	if err := createAuditTable(db); err != nil {
		l.log.ErrorWithErr("", "Failed to create audit table, auditing disabled", err, nil)
		_ = db.Close()
		return l
	}

	l.db = db
	l.wg.Add(1)
	go l.processQueue()
	return l
}

// Record queues one entry. Never blocks the caller.
func (l *AuditLogger) Record(entry *AuditEntry) {
	if l.db == nil {
		return
	}
	select {
	case l.queue <- entry:
	default:
		l.log.Warn("", "Audit queue full, dropping entry", map[string]interface{}{
			"request_id": entry.RequestID,
		})
	}
}

// Close flushes pending entries and stops the background writer
func (l *AuditLogger) Close() {
	if l.db == nil {
		return
	}
	close(l.shutdown)
	l.wg.Wait()
	_ = l.db.Close()
}

func (l *AuditLogger) processQueue() {
	defer l.wg.Done()

	ticker := time.NewTicker(auditFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case entry := <-l.queue:
			l.add(entry)
		case <-ticker.C:
			l.flush()
		case <-l.shutdown:
			for {
				select {
				case entry := <-l.queue:
					l.add(entry)
				default:
					l.flush()
					return
				}
			}
		}
	}
}

func (l *AuditLogger) add(entry *AuditEntry) {
	l.mu.Lock()
	l.pending = append(l.pending, entry)
	full := len(l.pending) >= auditBatchSize
	l.mu.Unlock()

	if full {
		l.flush()
	}
}

func (l *AuditLogger) flush() {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := l.write(batch); err != nil {
		l.log.ErrorWithErr("", "Failed to write audit batch", err, map[string]interface{}{
			"entries": len(batch),
		})
	}
}

func (l *AuditLogger) write(batch []*AuditEntry) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO ask_audit_logs (
			request_id, timestamp, question_hash, outcome, is_sap_ai,
			confidence, services, model, prompt_tokens, completion_tokens,
			tool_calls, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range batch {
		servicesJSON, _ := json.Marshal(entry.Services)
		if _, err := stmt.Exec(
			entry.RequestID,
			entry.Timestamp,
			entry.QuestionHash,
			entry.Outcome,
			entry.IsSAPAI,
			entry.Confidence,
			servicesJSON,
			entry.Model,
			entry.PromptTokens,
			entry.CompletionTokens,
			entry.ToolCalls,
			entry.DurationMS,
			entry.ErrorMessage,
		); err != nil {
			l.log.ErrorWithErr("", "Failed to insert audit entry", err, map[string]interface{}{
				"request_id": entry.RequestID,
			})
		}
	}

	return tx.Commit()
}

func createAuditTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS ask_audit_logs (
		id SERIAL PRIMARY KEY,
		request_id VARCHAR(255) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		question_hash VARCHAR(64) NOT NULL,
		outcome VARCHAR(50) NOT NULL,
		is_sap_ai BOOLEAN NOT NULL,
		confidence DECIMAL(4, 3),
		services JSONB,
		model VARCHAR(100),
		prompt_tokens INTEGER,
		completion_tokens INTEGER,
		tool_calls INTEGER,
		duration_ms BIGINT,
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ask_audit_logs_timestamp ON ask_audit_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_ask_audit_logs_outcome ON ask_audit_logs(outcome);
	`
	_, err := db.Exec(query)
	return err
}

func hashQuestion(question string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(question)))
}
