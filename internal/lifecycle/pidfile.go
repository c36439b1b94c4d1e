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

package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ldrerrors "github.com/tombee/remoteldr/pkg/errors"
)

var (
	// ErrAlreadyRunning is returned when the PID file names a live process.
	ErrAlreadyRunning = errors.New("another agent is already running")

	// ErrLocked is returned when another process holds the PID file lock.
	ErrLocked = errors.New("PID file is locked by another process")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// PIDFile is an exclusively locked file holding the agent's PID.
type PIDFile struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// NewPIDFile returns a PIDFile for path. Nothing is created until Acquire.
func NewPIDFile(path string, logger *slog.Logger) *PIDFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &PIDFile{path: path, logger: logger}
}

// Path returns the file location.
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire writes pid to the file and keeps it locked until Release. A file
// naming a process that no longer exists is replaced.
func (p *PIDFile) Acquire(pid int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file != nil {
		return fmt.Errorf("PID file %s already acquired", p.path)
	}

	dir := filepath.Dir(p.path)
	if err := verifyDirectorySafety(dir); err != nil {
		return fmt.Errorf("unsafe PID file location: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	f, err := p.create(pid)
	if errors.Is(err, os.ErrExist) {
		if err := p.removeStale(); err != nil {
			return err
		}
		f, err = p.create(pid)
	}
	if err != nil {
		return err
	}

	p.file = f
	return nil
}

func (p *PIDFile) create(pid int) (*os.File, error) {
	f, err := os.OpenFile(p.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}

	if err := lockFile(f); err != nil {
		f.Close()
		os.Remove(p.path)
		return nil, err
	}

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		unlockFile(f)
		f.Close()
		os.Remove(p.path)
		return nil, fmt.Errorf("failed to write PID: %w", err)
	}
	if err := f.Sync(); err != nil {
		unlockFile(f)
		f.Close()
		os.Remove(p.path)
		return nil, fmt.Errorf("failed to sync PID file: %w", err)
	}

	return f, nil
}

// removeStale deletes an existing file unless it names a live process.
func (p *PIDFile) removeStale() error {
	pid, err := p.Read()
	switch {
	case err == nil && processAlive(pid):
		return fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, p.path)
	case err == nil:
		p.logger.Warn("removing stale PID file", slog.String("path", p.path), slog.Int("pid", pid))
	case errors.Is(err, ErrInvalidPID):
		p.logger.Warn("removing corrupt PID file", slog.String("path", p.path), slog.String("error", err.Error()))
	default:
		var nf *ldrerrors.NotFoundError
		if ldrerrors.As(err, &nf) {
			// Removed between our create and read.
			return nil
		}
		return err
	}

	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale PID file: %w", err)
	}
	return nil
}

// Read returns the PID stored in the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &ldrerrors.NotFoundError{Resource: "PID file", ID: p.path}
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, pidStr)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}

	return pid, nil
}

// Release unlocks and deletes the file. It is safe to call more than once.
func (p *PIDFile) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}

	unlockFile(p.file)
	p.file.Close()
	p.file = nil

	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

func verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	// Sticky directories such as /tmp are world-writable but safe.
	mode := info.Mode()
	if mode&0002 != 0 && mode&os.ModeSticky == 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}
	return nil
}
