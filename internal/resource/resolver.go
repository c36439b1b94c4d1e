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

package resource

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// resolve maps a caller-supplied relative path onto the sandbox root.
//
// The candidate is first normalized lexically and required to stay under
// root. It is then canonicalized: fully when it exists, or through its deepest
// existing ancestor when it does not. The canonical form must also stay under
// root, so a symlinked intermediate directory cannot redirect a first write
// outside the sandbox.
//
// A relative path with a ".." component is rejected outright when its target
// does not exist yet.
func resolve(root, op, rel string) (string, error) {
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", traversalError(op, rel, "absolute paths are not allowed")
	}

	candidate := filepath.Join(root, rel)

	exists := true
	if _, err := os.Stat(candidate); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", ioError(op, rel, "failed to stat path", err)
		}
		exists = false
	}

	if !exists && hasParentComponent(rel) {
		return "", traversalError(op, rel, "parent directory reference in new path")
	}

	if !isWithin(root, candidate) {
		return "", traversalError(op, rel, "path escapes sandbox root")
	}

	canonical, err := canonicalize(candidate)
	if err != nil {
		return "", ioError(op, rel, "failed to canonicalize path", err)
	}

	if !isWithin(root, canonical) {
		return "", traversalError(op, rel, "path resolves outside sandbox root")
	}

	return canonical, nil
}

// canonicalize resolves symlinks in path. When path does not exist, the
// deepest existing ancestor is resolved and the missing tail is re-joined.
func canonicalize(path string) (string, error) {
	var tail []string
	current := path

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
}

// isWithin reports whether path is root or lies beneath it.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// hasParentComponent reports whether rel contains a literal ".." segment.
// Both separators are checked so "a\..\b" is caught on every platform.
func hasParentComponent(rel string) bool {
	parts := strings.FieldsFunc(rel, func(r rune) bool {
		return r == '/' || r == '\\' || r == filepath.Separator
	})
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}
