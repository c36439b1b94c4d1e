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

// Package service implements the RemoteLoader endpoint on top of the
// resource manager and process controller.
package service

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/log"
	"github.com/tombee/remoteldr/internal/process"
	"github.com/tombee/remoteldr/internal/resource"
	"github.com/tombee/remoteldr/internal/sysinfo"
	"github.com/tombee/remoteldr/internal/tracing"
	ldrerrors "github.com/tombee/remoteldr/pkg/errors"
)

// errInternal is the only error callers ever see from a failed operation.
var errInternal = status.Error(codes.Internal, "internal error")

// Service is the RemoteLoader endpoint. The resource manager and process
// controller each serialize their own operations; the two never block one
// another.
type Service struct {
	resources *resource.Manager
	processes *process.Controller
	logger    *slog.Logger
}

var _ api.Endpoint = (*Service)(nil)

// New creates a Service.
func New(resources *resource.Manager, processes *process.Controller, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resources: resources,
		processes: processes,
		logger:    log.WithComponent(logger, "service"),
	}
}

// Resources returns the resource manager.
func (s *Service) Resources() *resource.Manager {
	return s.resources
}

// Processes returns the process controller.
func (s *Service) Processes() *process.Controller {
	return s.processes
}

// fail logs err with its classification and returns the generic error.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	attrs := []any{
		slog.String("operation", op),
		slog.String("error_type", ldrerrors.Classify(err)),
		log.Error(err),
	}
	if id := tracing.FromContextOrEmpty(ctx); id != "" {
		attrs = append(attrs, slog.String(log.CorrelationIDKey, id.String()))
	}
	s.logger.Warn("operation failed", attrs...)
	return errInternal
}

func (s *Service) SystemInfo(ctx context.Context) (*api.SystemInfoResponse, error) {
	info := sysinfo.Current()
	return &api.SystemInfoResponse{
		ServerName:   info.Hostname,
		OS:           info.OS,
		Arch:         info.Arch,
		TargetTriple: info.TargetTriple,
	}, nil
}

func (s *Service) SendData(ctx context.Context, req *api.SendDataRequest) error {
	opts := resource.WriteOptions{Executable: req.Executable}
	if err := s.resources.Write(req.Filepath, req.Data, opts); err != nil {
		return s.fail(ctx, "send_data", err)
	}
	return nil
}

func (s *Service) GetData(ctx context.Context, req *api.GetDataRequest) (*api.GetDataResponse, error) {
	data, err := s.resources.Read(req.Filepath)
	if err != nil {
		return nil, s.fail(ctx, "get_data", err)
	}
	return &api.GetDataResponse{
		Filepath: req.Filepath,
		Data:     data,
	}, nil
}

func (s *Service) DeleteData(ctx context.Context, req *api.GetDataRequest) error {
	if err := s.resources.Delete(req.Filepath); err != nil {
		return s.fail(ctx, "delete_data", err)
	}
	return nil
}

func (s *Service) ResetData(ctx context.Context) error {
	if err := s.resources.Reset(); err != nil {
		return s.fail(ctx, "reset_data", err)
	}
	return nil
}

// SpawnProcess launches the requested binary. The name is passed to the OS
// unchanged: a bare name is looked up on PATH and a relative path is taken
// relative to the controller's working directory.
func (s *Service) SpawnProcess(ctx context.Context, req *api.SpawnProcessRequest) (*api.SpawnProcessResponse, error) {
	id, err := s.processes.Spawn(req.Process, req.Args, req.Env)
	if err != nil {
		return nil, s.fail(ctx, "spawn_process", err)
	}
	return &api.SpawnProcessResponse{ProcessID: id}, nil
}

func (s *Service) KillProcess(ctx context.Context, req *api.ProcessRequest) error {
	if err := s.processes.Kill(req.ProcessID); err != nil {
		return s.fail(ctx, "kill_process", err)
	}
	return nil
}

func (s *Service) PollProcess(ctx context.Context, req *api.ProcessRequest) (*api.PollProcessResponse, error) {
	st, exited, err := s.processes.PollExit(req.ProcessID)
	if err != nil {
		return nil, s.fail(ctx, "poll_process", err)
	}
	return &api.PollProcessResponse{
		Exited: exited,
		Code:   st.Code,
		Signal: st.Signal,
	}, nil
}

func (s *Service) WaitProcess(ctx context.Context, req *api.ProcessRequest) (*api.ExitStatusResponse, error) {
	st, err := s.processes.Wait(ctx, req.ProcessID)
	if err != nil {
		if ctx.Err() != nil {
			// The caller is gone; nothing will read the reply.
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, s.fail(ctx, "wait_process", err)
	}
	return &api.ExitStatusResponse{
		Code:   st.Code,
		Signal: st.Signal,
	}, nil
}

// Shutdown kills every spawned process.
func (s *Service) Shutdown() error {
	return s.processes.ShutdownAll()
}
