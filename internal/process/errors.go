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

package process

import (
	"errors"
	"fmt"
)

// ErrorType classifies process controller failures.
type ErrorType string

const (
	// ErrorTypeNotFound indicates no tracked process has the given id.
	ErrorTypeNotFound ErrorType = "process_not_found"

	// ErrorTypeSpawn indicates the OS refused to start the process.
	ErrorTypeSpawn ErrorType = "spawn_failed"

	// ErrorTypeKill indicates the termination signal could not be delivered.
	ErrorTypeKill ErrorType = "kill_failed"
)

// ErrNotFound matches any Error of type ErrorTypeNotFound.
var ErrNotFound = errors.New("process not found")

// Error is returned by every Controller operation that fails.
type Error struct {
	Op     string
	ID     uint32
	Binary string
	Type   ErrorType
	Cause  error
}

func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeSpawn:
		return fmt.Sprintf("%s %q: %v", e.Op, e.Binary, e.Cause)
	case ErrorTypeNotFound:
		return fmt.Sprintf("%s process %d: %v", e.Op, e.ID, ErrNotFound)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("%s process %d: %v", e.Op, e.ID, e.Cause)
		}
		return fmt.Sprintf("%s process %d: %s", e.Op, e.ID, e.Type)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Type == ErrorTypeNotFound
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *Error) ErrorType() string {
	return string(e.Type)
}

// IsRetryable implements pkg/errors.ErrorClassifier.
func (e *Error) IsRetryable() bool {
	return false
}

func notFound(op string, id uint32) *Error {
	return &Error{Op: op, ID: id, Type: ErrorTypeNotFound}
}
