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
	"fmt"
	"strings"
	"testing"

	ldrerrors "github.com/tombee/remoteldr/pkg/errors"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		original := errors.New("original error")
		wrapped := ldrerrors.Wrap(original, "additional context")

		if wrapped == nil {
			t.Fatal("Wrap should not return nil for non-nil error")
		}
		if got := wrapped.Error(); got != "additional context: original error" {
			t.Errorf("unexpected message: %s", got)
		}
		if !errors.Is(wrapped, original) {
			t.Error("wrapped error should match original with errors.Is")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if wrapped := ldrerrors.Wrap(nil, "context"); wrapped != nil {
			t.Errorf("Wrap(nil, _) should return nil, got: %v", wrapped)
		}
	})
}

func TestWrapf(t *testing.T) {
	original := errors.New("disk full")
	wrapped := ldrerrors.Wrapf(original, "writing %s (%d bytes)", "a.bin", 42)

	if !strings.HasPrefix(wrapped.Error(), "writing a.bin (42 bytes)") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, original) {
		t.Error("wrapped error should match original with errors.Is")
	}
	if ldrerrors.Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("x"), ldrerrors.TypeUnknown},
		{"not found", &ldrerrors.NotFoundError{Resource: "file", ID: "a"}, "not_found"},
		{"wrapped config", fmt.Errorf("loading: %w", &ldrerrors.ConfigError{Key: "k"}), "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ldrerrors.Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAs(t *testing.T) {
	sentinel := ldrerrors.New("sentinel")
	err := ldrerrors.Wrap(sentinel, "outer")
	if !ldrerrors.Is(err, sentinel) {
		t.Error("Is should find the sentinel")
	}

	var nf *ldrerrors.NotFoundError
	if ldrerrors.As(err, &nf) {
		t.Error("As should not match an unrelated type")
	}
	if !ldrerrors.As(ldrerrors.Wrap(&ldrerrors.NotFoundError{Resource: "pid file", ID: "/x"}, "read"), &nf) {
		t.Fatal("As should match NotFoundError through a wrap")
	}
	if nf.Resource != "pid file" {
		t.Errorf("Resource = %q", nf.Resource)
	}
}
