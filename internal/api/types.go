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

// Package api defines the RemoteLoader wire contract: message types, the gRPC
// service descriptor and a typed client.
//
// Messages are plain Go structs encoded with CBOR. The codec is registered
// with gRPC under the "cbor" content subtype when this package is imported.
package api

import (
	"github.com/tombee/remoteldr/internal/sysinfo"
)

// Empty is the request or response of calls that carry no data.
type Empty struct{}

// SystemInfoResponse identifies the agent host.
type SystemInfoResponse struct {
	ServerName   string       `cbor:"server_name"`
	OS           sysinfo.OS   `cbor:"os"`
	Arch         sysinfo.Arch `cbor:"arch"`
	TargetTriple string       `cbor:"target_triple,omitempty"`
}

// SendDataRequest stores Data at Filepath inside the sandbox.
type SendDataRequest struct {
	Filepath   string `cbor:"filepath"`
	Data       []byte `cbor:"data"`
	Executable bool   `cbor:"executable,omitempty"`
}

// GetDataRequest names a path inside the sandbox.
type GetDataRequest struct {
	Filepath string `cbor:"filepath"`
}

// GetDataResponse carries the contents of a stored file.
type GetDataResponse struct {
	Filepath string `cbor:"filepath"`
	Data     []byte `cbor:"data"`
}

// SpawnProcessRequest launches Process with Args. Env is overlaid on the
// agent's environment.
type SpawnProcessRequest struct {
	Process string            `cbor:"process"`
	Args    []string          `cbor:"args,omitempty"`
	Env     map[string]string `cbor:"env,omitempty"`
}

// SpawnProcessResponse returns the OS process id of the new child.
type SpawnProcessResponse struct {
	ProcessID uint32 `cbor:"process_id"`
}

// ProcessRequest names a previously spawned process.
type ProcessRequest struct {
	ProcessID uint32 `cbor:"process_id"`
}

// ExitStatusResponse describes how a process terminated. Code is absent when
// the process was killed by a signal.
type ExitStatusResponse struct {
	Code   *int32 `cbor:"code,omitempty"`
	Signal string `cbor:"signal,omitempty"`
}

// PollProcessResponse reports whether a process has exited and, if so, how.
type PollProcessResponse struct {
	Exited bool   `cbor:"exited"`
	Code   *int32 `cbor:"code,omitempty"`
	Signal string `cbor:"signal,omitempty"`
}
