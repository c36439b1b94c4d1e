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
	"errors"
	"fmt"
	"io/fs"
)

// ErrorType represents the category of a resource manager error.
type ErrorType string

const (
	// ErrorTypeNotFound indicates the file or directory does not exist.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypePathTraversal indicates the path resolves outside the sandbox root.
	ErrorTypePathTraversal ErrorType = "path_traversal"

	// ErrorTypeIO indicates any other filesystem failure.
	ErrorTypeIO ErrorType = "io"
)

var (
	// ErrNotFound matches any OperationError of type ErrorTypeNotFound.
	ErrNotFound = errors.New("resource not found")

	// ErrTraversal matches any OperationError of type ErrorTypePathTraversal.
	ErrTraversal = errors.New("path traversal rejected")
)

// OperationError represents an error from a resource manager operation.
// Path is always the caller-supplied relative path, never the resolved one.
type OperationError struct {
	Operation string
	Path      string
	Message   string
	Type      ErrorType
	Cause     error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %s: %v", e.Operation, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %q: %s", e.Operation, e.Path, e.Message)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the package sentinels by error type.
func (e *OperationError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrTraversal:
		return e.Type == ErrorTypePathTraversal
	}
	return false
}

// ErrorType returns the error category as a string.
func (e *OperationError) ErrorType() string {
	return string(e.Type)
}

// IsRetryable returns true if the error may succeed on retry.
func (e *OperationError) IsRetryable() bool {
	return false
}

func traversalError(op, path, message string) *OperationError {
	return &OperationError{
		Operation: op,
		Path:      path,
		Message:   message,
		Type:      ErrorTypePathTraversal,
	}
}

func notFoundError(op, path string) *OperationError {
	return &OperationError{
		Operation: op,
		Path:      path,
		Message:   "no such file or directory",
		Type:      ErrorTypeNotFound,
	}
}

// ioError classifies a filesystem error, folding fs.ErrNotExist into ErrorTypeNotFound.
func ioError(op, path, message string, err error) *OperationError {
	errType := ErrorTypeIO
	if errors.Is(err, fs.ErrNotExist) {
		errType = ErrorTypeNotFound
	}
	return &OperationError{
		Operation: op,
		Path:      path,
		Message:   message,
		Type:      errType,
		Cause:     err,
	}
}
