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

// Package resource implements the sandboxed file store.
//
// A Manager owns a single sandbox root directory. Every caller-supplied path
// is resolved against that root with traversal defense before any filesystem
// call is made, so reads, writes and deletes can never reach outside it.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	dirMode        os.FileMode = 0o755
	fileMode       os.FileMode = 0o644
	executableMode os.FileMode = 0o755
)

// WriteOptions controls how Write creates a file.
type WriteOptions struct {
	// Executable marks the written file as executable (0755 instead of 0644)
	// so it can be handed to the process controller afterwards.
	Executable bool
}

// Manager provides serialized, sandboxed access to files beneath a root.
// All methods are safe for concurrent use; operations are serialized by an
// internal lock that is held only for the duration of the call.
type Manager struct {
	mu    sync.Mutex
	root  string
	audit AuditLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithAuditLogger sets the audit logger used to record operations.
func WithAuditLogger(logger AuditLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.audit = logger
		}
	}
}

// New creates a Manager rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*Manager, error) {
	m := &Manager{
		audit: NoopAuditLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.SetRoot(root); err != nil {
		return nil, err
	}
	return m, nil
}

// SetRoot creates path if missing, canonicalizes it and makes it the active
// root. The previous root and its contents are left untouched.
func (m *Manager) SetRoot(path string) error {
	if path == "" {
		return &OperationError{Operation: "set_root", Message: "root path is empty", Type: ErrorTypeIO}
	}

	if err := os.MkdirAll(path, dirMode); err != nil {
		return ioError("set_root", path, "failed to create root", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return ioError("set_root", path, "failed to make root absolute", err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return ioError("set_root", path, "failed to canonicalize root", err)
	}

	m.mu.Lock()
	m.root = canonical
	m.mu.Unlock()
	return nil
}

// Root returns the canonical sandbox root.
func (m *Manager) Root() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root
}

// Resolve returns the absolute location rel maps to, or an OperationError of
// type ErrorTypePathTraversal if it would escape the root.
func (m *Manager) Resolve(rel string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return resolve(m.root, "resolve", rel)
}

// Write creates or replaces the file at rel with data, creating parent
// directories as needed. The file is written to a temporary sibling and
// renamed into place, so readers never observe a partial file.
func (m *Manager) Write(rel string, data []byte, opts WriteOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.observe("write", rel, func() (int64, int64, error) {
		target, err := resolve(m.root, "write", rel)
		if err != nil {
			return 0, 0, err
		}
		if target == m.root {
			return 0, 0, &OperationError{Operation: "write", Path: rel, Message: "cannot write to sandbox root", Type: ErrorTypeIO}
		}

		mode := fileMode
		if opts.Executable {
			mode = executableMode
		}
		if err := atomicWrite(target, data, mode); err != nil {
			return 0, 0, ioError("write", rel, "failed to write file", err)
		}
		return 0, int64(len(data)), nil
	})
}

// Read returns the contents of the file at rel.
func (m *Manager) Read(rel string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var data []byte
	err := m.observe("read", rel, func() (int64, int64, error) {
		target, err := resolve(m.root, "read", rel)
		if err != nil {
			return 0, 0, err
		}

		data, err = os.ReadFile(target)
		if err != nil {
			return 0, 0, ioError("read", rel, "failed to read file", err)
		}
		return int64(len(data)), 0, nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes the file at rel, or the directory at rel with all of its
// contents. Deleting the root itself empties it.
func (m *Manager) Delete(rel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.observe("delete", rel, func() (int64, int64, error) {
		target, err := resolve(m.root, "delete", rel)
		if err != nil {
			return 0, 0, err
		}

		info, err := os.Lstat(target)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return 0, 0, notFoundError("delete", rel)
			}
			return 0, 0, ioError("delete", rel, "failed to stat path", err)
		}

		if target == m.root {
			return 0, 0, m.resetLocked("delete", rel)
		}

		if info.IsDir() {
			err = os.RemoveAll(target)
		} else {
			err = os.Remove(target)
		}
		if err != nil {
			return 0, 0, ioError("delete", rel, "failed to remove path", err)
		}
		return 0, 0, nil
	})
}

// Reset deletes the entire root subtree and recreates an empty root.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.observe("reset", "", func() (int64, int64, error) {
		return 0, 0, m.resetLocked("reset", "")
	})
}

func (m *Manager) resetLocked(op, rel string) error {
	if err := os.RemoveAll(m.root); err != nil {
		return ioError(op, rel, "failed to remove root", err)
	}
	if err := os.MkdirAll(m.root, dirMode); err != nil {
		return ioError(op, rel, "failed to recreate root", err)
	}
	return nil
}

// observe wraps an operation with audit logging and metrics.
func (m *Manager) observe(operation, path string, fn func() (int64, int64, error)) error {
	start := time.Now()
	read, written, err := fn()
	duration := time.Since(start)

	entry := AuditEntry{
		Timestamp:    start,
		Operation:    operation,
		Path:         path,
		Result:       "success",
		Duration:     duration,
		BytesRead:    read,
		BytesWritten: written,
	}

	if err != nil {
		entry.Result = "error"
		entry.Error = err.Error()

		var opErr *OperationError
		if errors.As(err, &opErr) {
			entry.ErrorType = opErr.Type
		} else {
			entry.ErrorType = ErrorTypeIO
		}
	}

	recordMetrics(operation, duration.Seconds(), entry.Result, read, written, entry.ErrorType)
	m.audit.Log(entry)

	return err
}

// atomicWrite writes data to a temporary file next to path and renames it
// into place.
func atomicWrite(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".remoteldr.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		tmpFile = nil
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
