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

package service

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/process"
	"github.com/tombee/remoteldr/internal/resource"
	"github.com/tombee/remoteldr/internal/sysinfo"
)

func newTestService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	resources, err := resource.New(t.TempDir())
	require.NoError(t, err)
	processes := process.NewController(process.Options{Logger: logger})
	t.Cleanup(func() { _ = processes.ShutdownAll() })

	return New(resources, processes, logger), &buf
}

func assertInternal(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status, got %v", err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestService_SystemInfo(t *testing.T) {
	svc, _ := newTestService(t)

	info, err := svc.SystemInfo(context.Background())
	require.NoError(t, err)

	want := sysinfo.Current()
	assert.Equal(t, want.Hostname, info.ServerName)
	assert.Equal(t, want.OS, info.OS)
	assert.Equal(t, want.Arch, info.Arch)
	assert.Equal(t, want.TargetTriple, info.TargetTriple)
}

func TestService_SendGetData(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendData(ctx, &api.SendDataRequest{Filepath: "a/b.txt", Data: []byte("hi")}))

	rsp, err := svc.GetData(ctx, &api.GetDataRequest{Filepath: "a/b.txt"})
	require.NoError(t, err)
	assert.Equal(t, "a/b.txt", rsp.Filepath)
	assert.Equal(t, []byte("hi"), rsp.Data)

	require.NoError(t, svc.DeleteData(ctx, &api.GetDataRequest{Filepath: "a"}))
	_, err = svc.GetData(ctx, &api.GetDataRequest{Filepath: "a/b.txt"})
	assertInternal(t, err)

	require.NoError(t, svc.SendData(ctx, &api.SendDataRequest{Filepath: "x", Data: []byte("1")}))
	require.NoError(t, svc.ResetData(ctx))
	_, err = svc.GetData(ctx, &api.GetDataRequest{Filepath: "x"})
	assertInternal(t, err)
}

func TestService_ErrorsAreGeneric(t *testing.T) {
	svc, logs := newTestService(t)
	ctx := context.Background()

	err := svc.SendData(ctx, &api.SendDataRequest{Filepath: "../escape.txt", Data: []byte("x")})
	assertInternal(t, err)
	assert.NotContains(t, err.Error(), "escape")
	assert.Contains(t, logs.String(), `"error_type":"path_traversal"`)

	logs.Reset()
	_, err = svc.GetData(ctx, &api.GetDataRequest{Filepath: "missing.txt"})
	assertInternal(t, err)
	assert.Contains(t, logs.String(), `"error_type":"not_found"`)

	logs.Reset()
	err = svc.KillProcess(ctx, &api.ProcessRequest{ProcessID: 4242})
	assertInternal(t, err)
	assert.Contains(t, logs.String(), `"error_type":"process_not_found"`)

	_, err = svc.PollProcess(ctx, &api.ProcessRequest{ProcessID: 4242})
	assertInternal(t, err)

	_, err = svc.WaitProcess(ctx, &api.ProcessRequest{ProcessID: 4242})
	assertInternal(t, err)

	logs.Reset()
	_, err = svc.SpawnProcess(ctx, &api.SpawnProcessRequest{Process: "/nonexistent/binary"})
	assertInternal(t, err)
	assert.Contains(t, logs.String(), `"error_type":"spawn_failed"`)
}

func TestService_ProcessLifecycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping: test relies on /bin/sh")
	}
	svc, _ := newTestService(t)
	ctx := context.Background()

	rsp, err := svc.SpawnProcess(ctx, &api.SpawnProcessRequest{
		Process: "sh",
		Args:    []string{"-c", `exit $CODE`},
		Env:     map[string]string{"CODE": "5"},
	})
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("Skipping: spawn not permitted: %v", err)
	}
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st, err := svc.WaitProcess(waitCtx, &api.ProcessRequest{ProcessID: rsp.ProcessID})
	require.NoError(t, err)
	require.NotNil(t, st.Code)
	assert.Equal(t, int32(5), *st.Code)

	rsp, err = svc.SpawnProcess(ctx, &api.SpawnProcessRequest{Process: "sleep", Args: []string{"60"}})
	require.NoError(t, err)

	poll, err := svc.PollProcess(ctx, &api.ProcessRequest{ProcessID: rsp.ProcessID})
	require.NoError(t, err)
	assert.False(t, poll.Exited)

	require.NoError(t, svc.KillProcess(ctx, &api.ProcessRequest{ProcessID: rsp.ProcessID}))
	assert.Equal(t, 0, svc.Processes().Len())

	// A killed process is gone for good; waiting on it fails immediately.
	_, err = svc.WaitProcess(waitCtx, &api.ProcessRequest{ProcessID: rsp.ProcessID})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestService_WaitCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping: test relies on /bin/sh")
	}
	svc, _ := newTestService(t)

	rsp, err := svc.SpawnProcess(context.Background(), &api.SpawnProcessRequest{Process: "sleep", Args: []string{"60"}})
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("Skipping: spawn not permitted: %v", err)
	}
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = svc.WaitProcess(ctx, &api.ProcessRequest{ProcessID: rsp.ProcessID})
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}
