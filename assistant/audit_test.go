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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/assistant/shared/logger"
)

func TestAuditLogger_NoOpWithoutDatabase(t *testing.T) {
	audit := NewAuditLogger("")

	// must not panic or block
	audit.Record(&AuditEntry{RequestID: "req-1"})
	audit.Close()
}

func TestAuditLogger_WriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	audit := &AuditLogger{db: db, log: logger.New("audit")}

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT INTO ask_audit_logs")
	prepared.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prepared.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	batch := []*AuditEntry{
		{
			RequestID:    "req-1",
			Timestamp:    time.Now().UTC(),
			QuestionHash: hashQuestion("What is AI Core?"),
			Outcome:      outcomeAnswered,
			IsSAPAI:      true,
			Confidence:   0.95,
			Services:     []string{"ai_core"},
			Model:        "gpt-4o",
			PromptTokens: 100,
			ToolCalls:    1,
			DurationMS:   840,
		},
		{
			RequestID:    "req-2",
			Timestamp:    time.Now().UTC(),
			QuestionHash: hashQuestion("blocked"),
			Outcome:      outcomeBlocked,
			DurationMS:   120,
		},
	}

	require.NoError(t, audit.write(batch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogger_QueueDrainsOnClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	audit := &AuditLogger{
		db:       db,
		log:      logger.New("audit"),
		queue:    make(chan *AuditEntry, auditQueueSize),
		shutdown: make(chan struct{}),
	}
	audit.wg.Add(1)
	go audit.processQueue()

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT INTO ask_audit_logs")
	prepared.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	audit.Record(&AuditEntry{RequestID: "req-1", Timestamp: time.Now().UTC(), Outcome: outcomeMock})
	audit.Close()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHashQuestion(t *testing.T) {
	h1 := hashQuestion("What is AI Core?")
	h2 := hashQuestion("What is AI Core?")
	h3 := hashQuestion("What is Joule?")

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
