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

package errors_test

import (
	"errors"
	"testing"

	ldrerrors "github.com/tombee/remoteldr/pkg/errors"
)

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *ldrerrors.NotFoundError
		wantMsg string
	}{
		{
			name:    "file not found",
			err:     &ldrerrors.NotFoundError{Resource: "file", ID: "a/b.txt"},
			wantMsg: "file not found: a/b.txt",
		},
		{
			name:    "process not found",
			err:     &ldrerrors.NotFoundError{Resource: "process", ID: "4242"},
			wantMsg: "process not found: 4242",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("NotFoundError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	cause := errors.New("parse failure")
	err := &ldrerrors.ConfigError{Key: "server.port", Reason: "invalid value", Cause: cause}

	if got, want := err.Error(), "config error at server.port: invalid value: parse failure"; got != want {
		t.Errorf("ConfigError.Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}

	noKey := &ldrerrors.ConfigError{Reason: "bad"}
	if got, want := noKey.Error(), "config error: bad"; got != want {
		t.Errorf("ConfigError.Error() = %q, want %q", got, want)
	}
}

func TestTypes_ImplementClassifier(t *testing.T) {
	tests := []struct {
		name     string
		err      ldrerrors.ErrorClassifier
		wantType string
	}{
		{name: "not found", err: &ldrerrors.NotFoundError{Resource: "file"}, wantType: "not_found"},
		{name: "config", err: &ldrerrors.ConfigError{Reason: "bad"}, wantType: "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.ErrorType(); got != tt.wantType {
				t.Errorf("ErrorType() = %q, want %q", got, tt.wantType)
			}
			if tt.err.IsRetryable() {
				t.Error("IsRetryable() = true, want false")
			}
		})
	}
}
