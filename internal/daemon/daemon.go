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

// Package daemon assembles the agent: sandbox, process controller, RPC
// server, metrics endpoint and PID file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/tombee/remoteldr/internal/config"
	"github.com/tombee/remoteldr/internal/lifecycle"
	internallog "github.com/tombee/remoteldr/internal/log"
	"github.com/tombee/remoteldr/internal/process"
	"github.com/tombee/remoteldr/internal/resource"
	"github.com/tombee/remoteldr/internal/rpc"
	"github.com/tombee/remoteldr/internal/service"
	"github.com/tombee/remoteldr/internal/tracing"
)

// Options contains daemon options set at build time.
type Options struct {
	Version   string
	Commit    string
	BuildDate string

	// Logger overrides the logger built from configuration.
	Logger *slog.Logger
}

// Daemon is a running agent.
type Daemon struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	tracing   *tracing.Provider
	service   *service.Service
	rpc       *rpc.Server
	metrics   *http.Server
	metricsLn net.Listener
	pidFile   *lifecycle.PIDFile

	mu      sync.Mutex
	started bool
	errCh   chan error
}

// New builds a daemon from cfg. Nothing listens until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = internallog.New(cfg.LoggerConfig())
	}
	logger = internallog.WithComponent(logger, "daemon")

	tracingCfg := cfg.Tracing
	if opts.Version != "" && (tracingCfg.ServiceVersion == "" || tracingCfg.ServiceVersion == "unknown") {
		tracingCfg.ServiceVersion = opts.Version
	}
	tp, err := tracing.NewProvider(ctx, tracingCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing provider: %w", err)
	}

	resources, err := resource.New(cfg.Sandbox.Workdir,
		resource.WithAuditLogger(resource.NewSlogAuditLogger(internallog.WithComponent(logger, "sandbox"))))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	processes := process.NewController(process.Options{
		InheritOutput: cfg.Process.InheritOutput,
		Dir:           cfg.Process.Dir,
		Logger:        internallog.WithComponent(logger, "process"),
	})

	svc := service.New(resources, processes, logger)

	server := rpc.NewServer(rpc.Config{
		Address:   cfg.Address(),
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	}, svc, logger, rpc.WithTracer(tp.Tracer("github.com/tombee/remoteldr/internal/rpc")))

	d := &Daemon{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		tracing: tp,
		service: svc,
		rpc:     server,
		errCh:   make(chan error, 2),
	}
	if cfg.Server.PIDFile != "" {
		d.pidFile = lifecycle.NewPIDFile(cfg.Server.PIDFile, logger)
	}

	return d, nil
}

// Start acquires the PID file and begins serving. It does not block; serve
// failures are delivered on Err.
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.New("daemon already started")
	}

	if d.pidFile != nil {
		if err := d.pidFile.Acquire(os.Getpid()); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
	}

	if err := d.rpc.Start(); err != nil {
		d.releasePIDFile()
		return err
	}
	go d.forward(d.rpc.Err())

	if d.cfg.Metrics.Address != "" {
		if err := d.startMetrics(); err != nil {
			d.rpc.Stop(context.Background())
			d.releasePIDFile()
			return err
		}
	}

	d.started = true
	d.logger.Info("agent started",
		slog.String("version", d.opts.Version),
		slog.String("address", d.rpc.Addr().String()),
		slog.String("workdir", d.service.Resources().Root()),
		slog.Int("pid", os.Getpid()))
	return nil
}

func (d *Daemon) startMetrics() error {
	ln, err := net.Listen("tcp", d.cfg.Metrics.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address %s: %w", d.cfg.Metrics.Address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	d.metrics = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	d.metricsLn = ln

	errCh := make(chan error, 1)
	go func() {
		if err := d.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go d.forward(errCh)

	d.logger.Info("metrics endpoint started", slog.String("address", ln.Addr().String()))
	return nil
}

func (d *Daemon) forward(ch <-chan error) {
	if err, ok := <-ch; ok {
		select {
		case d.errCh <- err:
		default:
		}
	}
}

// Err delivers the first serve failure.
func (d *Daemon) Err() <-chan error {
	return d.errCh
}

// Addr returns the RPC listen address, or nil before Start.
func (d *Daemon) Addr() net.Addr {
	return d.rpc.Addr()
}

// MetricsAddr returns the metrics listen address, or nil when disabled.
func (d *Daemon) MetricsAddr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.metricsLn == nil {
		return nil
	}
	return d.metricsLn.Addr()
}

// Shutdown stops serving, kills every child process still running and
// releases the PID file. Each step runs even if an earlier one fails.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	d.logger.Info("graceful shutdown initiated",
		slog.Int("active_processes", d.service.Processes().Len()))

	shutdownCtx, cancel := context.WithTimeout(ctx, d.cfg.Server.ShutdownTimeout)
	defer cancel()

	var err error

	// Kill children first so blocked WaitProcess calls complete and the
	// graceful stop can drain.
	if kerr := d.service.Shutdown(); kerr != nil {
		d.logger.Error("failed to kill child processes", internallog.Error(kerr))
		err = multierr.Append(err, kerr)
	}

	d.rpc.Stop(shutdownCtx)

	if d.metrics != nil {
		if merr := d.metrics.Shutdown(shutdownCtx); merr != nil {
			d.logger.Error("metrics server shutdown error", internallog.Error(merr))
			err = multierr.Append(err, merr)
		}
	}

	if terr := d.tracing.Shutdown(shutdownCtx); terr != nil {
		d.logger.Error("tracing provider shutdown error", internallog.Error(terr))
		err = multierr.Append(err, terr)
	}

	err = multierr.Append(err, d.releasePIDFile())

	d.started = false
	d.logger.Info("agent stopped")
	return err
}

func (d *Daemon) releasePIDFile() error {
	if d.pidFile == nil {
		return nil
	}
	if err := d.pidFile.Release(); err != nil {
		d.logger.Error("failed to remove PID file",
			internallog.Error(err),
			slog.String("path", d.pidFile.Path()))
		return err
	}
	return nil
}
