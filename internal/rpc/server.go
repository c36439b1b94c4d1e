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

// Package rpc serves the RemoteLoader endpoint over gRPC.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/log"
)

// Config holds server settings.
type Config struct {
	// Address is the TCP address to listen on.
	Address string

	// RateLimit is the sustained number of requests per second accepted
	// across all callers. Zero disables limiting.
	RateLimit float64

	// RateBurst is the number of requests allowed above RateLimit in a burst.
	RateBurst int
}

// Server is a gRPC server hosting the RemoteLoader and health services.
type Server struct {
	mu       sync.Mutex
	cfg      Config
	logger   *slog.Logger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	errCh    chan error
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	tracer trace.Tracer
	extra  []grpc.ServerOption
}

// WithTracer sets the tracer used for per-request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *serverOptions) {
		o.tracer = tracer
	}
}

// WithServerOptions appends raw gRPC server options.
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(o *serverOptions) {
		o.extra = append(o.extra, opts...)
	}
}

// NewServer creates a server that dispatches to endpoint.
func NewServer(cfg Config, endpoint api.Endpoint, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, "rpc")

	o := &serverOptions{tracer: noop.NewTracerProvider().Tracer("")}
	for _, opt := range opts {
		opt(o)
	}

	interceptors := []grpc.UnaryServerInterceptor{
		correlationInterceptor,
		tracingInterceptor(o.tracer),
		loggingInterceptor(logger),
		metricsInterceptor,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		interceptors = append(interceptors, rateLimitInterceptor(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxRecvMsgSize(api.MaxMessageSize),
		grpc.MaxSendMsgSize(api.MaxMessageSize),
	}
	serverOpts = append(serverOpts, o.extra...)

	server := grpc.NewServer(serverOpts...)
	api.RegisterService(server, endpoint)

	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	return &Server{
		cfg:    cfg,
		logger: logger,
		server: server,
		health: hs,
		errCh:  make(chan error, 1),
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln in the background.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("gRPC server already started")
	}
	s.listener = ln

	s.logger.Info("gRPC server started", slog.String("address", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.errCh <- err
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Err delivers a serve failure, if one occurs.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Stop marks the service as not serving and drains in-flight requests. If
// ctx ends first, remaining requests are cancelled.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, closing remaining connections")
		s.server.Stop()
		<-done
	}
	s.logger.Info("gRPC server stopped")
}
