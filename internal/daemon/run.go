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

package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tombee/remoteldr/internal/config"
	"github.com/tombee/remoteldr/internal/log"
)

// Run starts the agent and blocks until ctx is cancelled or a server
// fails, then shuts down.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(cfg.LoggerConfig())
		opts.Logger = logger
	}

	d, err := New(ctx, cfg, opts)
	if err != nil {
		logger.Error("failed to create agent", log.Error(err))
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if err := d.Start(); err != nil {
		logger.Error("failed to start agent", log.Error(err))
		return fmt.Errorf("failed to start agent: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested", slog.String("reason", context.Cause(ctx).Error()))
	case runErr = <-d.Err():
		logger.Error("server error", log.Error(runErr))
	}

	// The parent context is already done; give shutdown its own budget.
	if err := d.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Error("error during shutdown", log.Error(err))
		if runErr == nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}
	return runErr
}
