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
	"context"
	"log/slog"
	"time"
)

// AuditEntry represents a logged sandbox operation.
type AuditEntry struct {
	Timestamp    time.Time
	Operation    string
	Path         string
	Result       string // "success" or "error"
	Duration     time.Duration
	BytesRead    int64
	BytesWritten int64
	ErrorType    ErrorType
	Error        string // if Result == "error"
}

// AuditLogger logs sandbox operations.
type AuditLogger interface {
	Log(entry AuditEntry)
}

// SlogAuditLogger implements AuditLogger using structured logging with slog.
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger creates an audit logger that uses slog.
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	return &SlogAuditLogger{
		logger: logger,
	}
}

// Log writes an audit entry using structured logging.
func (l *SlogAuditLogger) Log(entry AuditEntry) {
	if l.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", entry.Operation),
		slog.String("path", entry.Path),
		slog.String("result", entry.Result),
		slog.Duration("duration", entry.Duration),
	}

	if entry.BytesRead > 0 {
		attrs = append(attrs, slog.Int64("bytes_read", entry.BytesRead))
	}
	if entry.BytesWritten > 0 {
		attrs = append(attrs, slog.Int64("bytes_written", entry.BytesWritten))
	}
	if entry.ErrorType != "" {
		attrs = append(attrs, slog.String("error_type", string(entry.ErrorType)))
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", entry.Error))
	}

	// Traversal attempts are security events; everything else that fails is
	// an ordinary operational warning.
	switch {
	case entry.ErrorType == ErrorTypePathTraversal:
		l.logger.LogAttrs(context.Background(), slog.LevelWarn, "sandbox traversal rejected", attrs...)
	case entry.Result == "error":
		l.logger.LogAttrs(context.Background(), slog.LevelError, "sandbox operation failed", attrs...)
	default:
		l.logger.LogAttrs(context.Background(), slog.LevelDebug, "sandbox operation completed", attrs...)
	}
}

// NoopAuditLogger is a no-op implementation for when auditing is disabled.
type NoopAuditLogger struct{}

// Log does nothing.
func (NoopAuditLogger) Log(AuditEntry) {}
