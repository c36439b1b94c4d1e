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

/*
Package lifecycle manages the agent's PID file.

The PID file is created with O_EXCL and 0600 permissions inside a directory
that must not be world-writable, then held under an exclusive flock for the
lifetime of the agent:

	pf := lifecycle.NewPIDFile("/run/remoteldr/remoteldr.pid")
	if err := pf.Acquire(os.Getpid()); err != nil {
	    // another agent is running, or the location is unsafe
	}
	defer pf.Release()

A file left behind by an agent that no longer runs is treated as stale and
replaced.
*/
package lifecycle
