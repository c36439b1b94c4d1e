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

// Package process tracks child processes launched on behalf of remote callers.
//
// The Controller owns a table of every process it has spawned and not yet
// reaped, keyed by OS process id. A reaper goroutine per child calls Wait on
// it as soon as it is started, so exited children never linger as zombies;
// the exit status is held in the table until a caller observes it through
// PollExit or Wait, or discards it through Kill.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Options configures a Controller.
type Options struct {
	// InheritOutput connects child stdout and stderr to the agent's own.
	// When false, child output is discarded.
	InheritOutput bool

	// Dir is the working directory for spawned processes. Empty means the
	// agent's working directory.
	Dir string

	// Logger receives lifecycle events. Defaults to slog.Default().
	Logger *slog.Logger
}

type managed struct {
	id      uint32
	binary  string
	cmd     *exec.Cmd
	started time.Time

	// done is closed by the reaper once status is set.
	done   chan struct{}
	status ExitStatus

	// detached is set when a waiter gave up; the reaper then removes the
	// entry itself. Guarded by Controller.mu.
	detached bool
}

func (m *managed) exited() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Controller spawns and tracks child processes. It is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	table  map[uint32]*managed
	opts   Options
	logger *slog.Logger
}

// NewController creates an empty Controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		table:  make(map[uint32]*managed),
		opts:   opts,
		logger: logger,
	}
}

// Spawn starts binary with args. The child inherits the agent's environment
// with env overlaid on top; keys in env replace inherited ones.
func (c *Controller) Spawn(binary string, args []string, env map[string]string) (uint32, error) {
	cmd := exec.Command(binary, args...)
	cmd.Dir = c.opts.Dir
	if len(env) > 0 {
		cmd.Env = overlayEnv(os.Environ(), env)
	}
	// Only *os.File values are handed to the child directly. Anything else
	// makes exec.Cmd.Wait block on a copy pipe that outlives the child
	// whenever a grandchild keeps it open. Nil means the null device.
	if c.opts.InheritOutput {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		spawnsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("spawn failed",
			slog.String("binary", binary),
			slog.Any("error", err),
		)
		return 0, &Error{Op: "spawn", Binary: binary, Type: ErrorTypeSpawn, Cause: err}
	}

	entry := &managed{
		id:      uint32(cmd.Process.Pid),
		binary:  binary,
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	if prev, ok := c.table[entry.id]; ok {
		// The OS recycled the pid of a child whose exit nobody observed.
		c.logger.Warn("discarding unobserved exit of recycled process id",
			slog.Uint64("pid", uint64(prev.id)),
			slog.String("binary", prev.binary),
		)
	}
	c.table[entry.id] = entry
	trackedProcesses.Set(float64(len(c.table)))
	c.mu.Unlock()

	go c.reap(entry)

	spawnsTotal.WithLabelValues("success").Inc()
	c.logger.Info("process spawned",
		slog.Uint64("pid", uint64(entry.id)),
		slog.String("binary", binary),
		slog.Int("args", len(args)),
	)

	return entry.id, nil
}

func (c *Controller) reap(entry *managed) {
	// The error only repeats what ProcessState already says.
	_ = entry.cmd.Wait()

	entry.status = exitStatusFromState(entry.cmd.ProcessState)
	close(entry.done)
	recordExit(entry.status)

	c.logger.Debug("process exited",
		slog.Uint64("pid", uint64(entry.id)),
		slog.String("status", entry.status.String()),
		slog.Duration("runtime", time.Since(entry.started)),
	)

	c.mu.Lock()
	if entry.detached {
		c.removeLocked(entry)
	}
	c.mu.Unlock()
}

// removeLocked deletes entry unless the slot has since been taken by another
// process. Callers must hold c.mu.
func (c *Controller) removeLocked(entry *managed) {
	if c.table[entry.id] == entry {
		delete(c.table, entry.id)
		trackedProcesses.Set(float64(len(c.table)))
	}
}

// Kill forcibly terminates the process and removes it from the table. A
// process that already exited but was never observed counts as killed.
func (c *Controller) Kill(id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.table[id]
	if !ok {
		killsTotal.WithLabelValues("not_found").Inc()
		return notFound("kill", id)
	}

	if err := killEntry(entry); err != nil {
		killsTotal.WithLabelValues("error").Inc()
		return &Error{Op: "kill", ID: id, Type: ErrorTypeKill, Cause: err}
	}

	c.removeLocked(entry)
	killsTotal.WithLabelValues("success").Inc()
	c.logger.Info("process killed", slog.Uint64("pid", uint64(id)))
	return nil
}

func killEntry(entry *managed) error {
	if entry.exited() {
		return nil
	}
	if err := entry.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// PollExit reports whether the process has exited without blocking. When it
// has, the entry is removed and its status returned with exited set to true.
// A running process is left in the table.
func (c *Controller) PollExit(id uint32) (status ExitStatus, exited bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.table[id]
	if !ok {
		return ExitStatus{}, false, notFound("poll", id)
	}

	if !entry.exited() {
		return ExitStatus{}, false, nil
	}

	c.removeLocked(entry)
	return entry.status, true, nil
}

// Wait blocks until the process exits, removes it from the table and returns
// its status. The table lock is not held while blocking.
//
// If ctx is done first, Wait returns ctx.Err() and the process is removed
// from the table as soon as it exits; its status is not delivered to anyone.
func (c *Controller) Wait(ctx context.Context, id uint32) (ExitStatus, error) {
	c.mu.Lock()
	entry, ok := c.table[id]
	c.mu.Unlock()
	if !ok {
		return ExitStatus{}, notFound("wait", id)
	}

	select {
	case <-entry.done:
		c.mu.Lock()
		c.removeLocked(entry)
		c.mu.Unlock()
		return entry.status, nil

	case <-ctx.Done():
		c.mu.Lock()
		if entry.exited() {
			c.removeLocked(entry)
		} else {
			entry.detached = true
		}
		c.mu.Unlock()

		c.logger.Debug("wait abandoned",
			slog.Uint64("pid", uint64(id)),
			slog.Any("error", ctx.Err()),
		)
		return ExitStatus{}, ctx.Err()
	}
}

// ShutdownAll kills every tracked process and clears the table. Individual
// failures do not stop the sweep; they are returned together.
func (c *Controller) ShutdownAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result error
	for id, entry := range c.table {
		if err := killEntry(entry); err != nil {
			result = multierr.Append(result, fmt.Errorf("kill process %d: %w", id, err))
			continue
		}
		c.logger.Debug("process killed during shutdown", slog.Uint64("pid", uint64(id)))
	}

	if n := len(c.table); n > 0 {
		c.logger.Info("process table cleared", slog.Int("processes", n))
	}
	c.table = make(map[uint32]*managed)
	trackedProcesses.Set(0)

	return result
}

// List returns the ids of all tracked processes in ascending order.
func (c *Controller) List() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uint32, 0, len(c.table))
	for id := range c.table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of tracked processes.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}

// overlayEnv returns base with overrides appended in key order. exec.Cmd
// keeps the last value for duplicate keys, so overrides win.
func overlayEnv(base []string, overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
