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
	"fmt"
	"os"
	"syscall"
)

// ExitStatus describes how a process terminated. Code is nil when the
// process was terminated by a signal, in which case Signal names it.
type ExitStatus struct {
	Code   *int32
	Signal string
}

// Success reports whether the process exited normally with code 0.
func (s ExitStatus) Success() bool {
	return s.Code != nil && *s.Code == 0
}

func (s ExitStatus) String() string {
	switch {
	case s.Code != nil:
		return fmt.Sprintf("exit status %d", *s.Code)
	case s.Signal != "":
		return "signal: " + s.Signal
	default:
		return "unknown"
	}
}

func exitStatusFromState(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{}
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Signal: signalName(ws.Signal())}
	}

	code := int32(state.ExitCode())
	if code < 0 {
		return ExitStatus{}
	}
	return ExitStatus{Code: &code}
}
