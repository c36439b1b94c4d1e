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

package shared

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewRPCError(t *testing.T) {
	tests := []struct {
		name           string
		cause          error
		wantCode       int
		wantSuggestion bool
	}{
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), ExitUnavailable, true},
		{"deadline", status.Error(codes.DeadlineExceeded, "timeout"), ExitUnavailable, true},
		{"rate limited", status.Error(codes.ResourceExhausted, "slow down"), ExitFailure, true},
		{"internal", status.Error(codes.Internal, "internal error"), ExitFailure, false},
		{"plain error", errors.New("boom"), ExitFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRPCError("get", tt.cause)
			if err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", err.Code, tt.wantCode)
			}
			if (err.Suggestion != "") != tt.wantSuggestion {
				t.Errorf("Suggestion = %q, wantSuggestion %v", err.Suggestion, tt.wantSuggestion)
			}
			if !errors.Is(err, tt.cause) {
				t.Error("expected cause to be unwrappable")
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != ExitSuccess {
		t.Errorf("ExitCode(nil) = %d, want %d", got, ExitSuccess)
	}
	if got := ExitCode(errors.New("x")); got != ExitFailure {
		t.Errorf("ExitCode(plain) = %d, want %d", got, ExitFailure)
	}

	wrapped := fmt.Errorf("outer: %w", NewConfigError("bad config", nil))
	if got := ExitCode(wrapped); got != ExitConfig {
		t.Errorf("ExitCode(wrapped config) = %d, want %d", got, ExitConfig)
	}
	if got := ExitCode(NewUsageError("bad args", nil)); got != ExitUsage {
		t.Errorf("ExitCode(usage) = %d, want %d", got, ExitUsage)
	}
}

func TestExitError_Error(t *testing.T) {
	err := &ExitError{Message: "get failed", Cause: errors.New("not found")}
	if got := err.Error(); got != "get failed: not found" {
		t.Errorf("Error() = %q", got)
	}

	err = &ExitError{Message: "plain"}
	if got := err.Error(); got != "plain" {
		t.Errorf("Error() = %q", got)
	}
}
