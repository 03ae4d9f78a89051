// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		elems   []string
		want    string
		wantErr bool
	}{
		{"single file", []string{"a.jpg"}, filepath.Join(base, "a.jpg"), false},
		{"nested", []string{"products", "2026", "a.webp"}, filepath.Join(base, "products", "2026", "a.webp"), false},
		{"inner dotdot", []string{"products", "..", "a.jpg"}, filepath.Join(base, "a.jpg"), false},
		{"base itself", nil, base, false},
		{"escape", []string{"..", "etc", "passwd"}, "", true},
		{"deep escape", []string{"a", "..", "..", "x"}, "", true},
		{"sibling prefix", []string{"..", filepath.Base(base) + "-evil", "x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoinPath(base, tt.elems...)
			if tt.wantErr {
				if !errors.Is(err, ErrPathEscape) {
					t.Errorf("SafeJoinPath() error = %v, want ErrPathEscape", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeJoinPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SafeJoinPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
