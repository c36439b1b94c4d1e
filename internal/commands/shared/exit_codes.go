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
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Exit codes (sysexits.h where one fits)
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitUsage       = 64 // EX_USAGE
	ExitUnavailable = 69 // EX_UNAVAILABLE
	ExitConfig      = 78 // EX_CONFIG
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code       int
	Message    string
	Suggestion string
	Cause      error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUsageError creates an error for malformed arguments
func NewUsageError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: msg, Cause: cause}
}

// NewConfigError creates an error for configuration that could not be loaded
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Cause: cause}
}

// NewRPCError classifies a failed call to the agent. Unreachable agents get
// ExitUnavailable and a hint; everything else is a plain failure.
func NewRPCError(op string, cause error) *ExitError {
	exitErr := &ExitError{
		Code:    ExitFailure,
		Message: op + " failed",
		Cause:   cause,
	}
	switch status.Code(cause) {
	case codes.Unavailable:
		exitErr.Code = ExitUnavailable
		exitErr.Suggestion = "Is the agent running? Start it with 'remoteldr server' and check --addr."
	case codes.DeadlineExceeded:
		exitErr.Code = ExitUnavailable
		exitErr.Suggestion = "The agent did not answer in time; raise --timeout."
	case codes.ResourceExhausted:
		exitErr.Suggestion = "The agent is rate limiting requests; retry shortly."
	}
	return exitErr
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// HandleExitError prints err and exits with its code. A nil error is a no-op.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	if msg := err.Error(); msg != "" {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", exitErr.Suggestion)
	}

	os.Exit(ExitCode(err))
}
