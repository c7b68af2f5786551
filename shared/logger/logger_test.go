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

package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"
	"time"
)

// TestNew tests logger initialization
func TestNew(t *testing.T) {
	l := New("assistant")

	if l.Component != "assistant" {
		t.Errorf("Expected component assistant, got %s", l.Component)
	}

	if l.Container == "" {
		t.Error("Expected container to be set from hostname")
	}
}

// captureOutput captures log output produced by fn
func captureOutput(fn func()) string {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer log.SetOutput(log.Writer())

	fn()
	return buf.String()
}

func TestLog_ProducesValidJSON(t *testing.T) {
	l := New("assistant")

	output := captureOutput(func() {
		l.Info("req-123", "test message", map[string]interface{}{
			"question_length": 42,
		})
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v\noutput: %s", err, output)
	}

	if entry.Level != INFO {
		t.Errorf("Expected level INFO, got %s", entry.Level)
	}
	if entry.Component != "assistant" {
		t.Errorf("Expected component assistant, got %s", entry.Component)
	}
	if entry.RequestID != "req-123" {
		t.Errorf("Expected request_id req-123, got %s", entry.RequestID)
	}
	if entry.Message != "test message" {
		t.Errorf("Expected message %q, got %q", "test message", entry.Message)
	}
	if entry.Fields["question_length"].(float64) != 42 {
		t.Errorf("Expected question_length 42, got %v", entry.Fields["question_length"])
	}

	if _, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err != nil {
		t.Errorf("Timestamp is not RFC3339Nano: %v", err)
	}
}

func TestLog_Levels(t *testing.T) {
	l := New("test")

	tests := []struct {
		name  string
		logFn func()
		level LogLevel
	}{
		{"debug", func() { l.Debug("", "dbg", nil) }, DEBUG},
		{"info", func() { l.Info("", "inf", nil) }, INFO},
		{"warn", func() { l.Warn("", "wrn", nil) }, WARN},
		{"error", func() { l.Error("", "err", nil) }, ERROR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(tt.logFn)

			var entry LogEntry
			if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if entry.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, entry.Level)
			}
		})
	}
}

func TestErrorWithErr_AttachesError(t *testing.T) {
	l := New("test")

	output := captureOutput(func() {
		l.ErrorWithErr("req-1", "upstream failed", errTest, nil)
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entry.Fields["error"] != "boom" {
		t.Errorf("Expected error field boom, got %v", entry.Fields["error"])
	}
}

func TestInfoWithDuration_AddsDurationField(t *testing.T) {
	l := New("test")

	output := captureOutput(func() {
		l.InfoWithDuration("req-1", "ask completed", 12.5, nil)
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entry.Fields["duration_ms"].(float64) != 12.5 {
		t.Errorf("Expected duration_ms 12.5, got %v", entry.Fields["duration_ms"])
	}
}

type testError struct{}

func (testError) Error() string { return "boom" }

var errTest = testError{}
