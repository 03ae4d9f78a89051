// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a joined path leaves its base directory.
var ErrPathEscape = errors.New("path escapes base directory")

// SafeJoinPath joins elems onto base and fails when the cleaned result is
// outside base. "/uploads-evil" does not count as inside "/uploads".
func SafeJoinPath(base string, elems ...string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	full := filepath.Join(append([]string{absBase}, elems...)...)

	rel, err := filepath.Rel(absBase, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return filepath.Join(append([]string{base}, elems...)...), nil
}
