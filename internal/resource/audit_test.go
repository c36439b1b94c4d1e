// Copyright 2025 Tom Barlow
//
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

package resource

import (
	"bytes"
	"log/slog"
	"testing"
	"time"
)

func TestSlogAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	auditLogger := NewSlogAuditLogger(logger)

	auditLogger.Log(AuditEntry{
		Timestamp:    time.Now(),
		Operation:    "write",
		Path:         "bin/tool",
		Result:       "success",
		Duration:     100 * time.Millisecond,
		BytesWritten: 1024,
	})

	for _, field := range []string{"write", "bin/tool", "success", "1024"} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Errorf("Expected log to contain %q, got: %s", field, buf.String())
		}
	}
}

func TestSlogAuditLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	auditLogger := NewSlogAuditLogger(logger)

	auditLogger.Log(AuditEntry{
		Timestamp: time.Now(),
		Operation: "read",
		Path:      "missing.txt",
		Result:    "error",
		ErrorType: ErrorTypeNotFound,
		Error:     "no such file or directory",
	})

	if !bytes.Contains(buf.Bytes(), []byte(`"level":"ERROR"`)) {
		t.Errorf("Expected error level, got: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("no such file or directory")) {
		t.Errorf("Expected error message in log, got: %s", buf.String())
	}
}

func TestSlogAuditLogger_NilLogger(t *testing.T) {
	// Should not panic
	NewSlogAuditLogger(nil).Log(AuditEntry{Operation: "write"})
}

func TestNoopAuditLogger(t *testing.T) {
	NoopAuditLogger{}.Log(AuditEntry{Operation: "write"})
}
