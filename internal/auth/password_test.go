// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

// legacyHash encodes "changeme" with m=65536,t=1,p=4.
const legacyHash = "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Kış-İndirimi-2026")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("hash = %q", hash)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash reported as outdated")
	}

	other, _ := HashPassword("Kış-İndirimi-2026")
	if other == hash {
		t.Error("two hashes of the same password share a salt")
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"Kış-İndirimi-2026", true},
		{"kış-i̇ndirimi-2026", false},
		{"", false},
	}
	for _, tt := range tests {
		ok, err := CheckPassword(tt.password, hash)
		if err != nil || ok != tt.want {
			t.Errorf("CheckPassword(%q) = %v, %v; want %v", tt.password, ok, err, tt.want)
		}
	}
}

func TestCheckPassword_LegacyParameters(t *testing.T) {
	if ok, err := CheckPassword("changeme", legacyHash); err != nil || !ok {
		t.Fatalf("legacy hash rejected its password: %v, %v", ok, err)
	}
	if ok, _ := CheckPassword("wrongpassword", legacyHash); ok {
		t.Fatal("legacy hash accepted a wrong password")
	}
	if !NeedsRehash(legacyHash) {
		t.Error("legacy parameters should trigger a rehash")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	for _, h := range []string{
		"plain",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$",
	} {
		if _, err := CheckPassword("x", h); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("CheckPassword(%q) err = %v, want ErrMalformedHash", h, err)
		}
		if !NeedsRehash(h) {
			t.Errorf("NeedsRehash(%q) = false", h)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"12345", ErrPasswordTooShort},
		{"123456", nil},
		{"şifreç", nil},
		{strings.Repeat("ğ", MaxPasswordLength), nil},
		{strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},
	}
	for _, tt := range tests {
		if err := ValidatePassword(tt.password); !errors.Is(err, tt.want) {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.want)
		}
	}
}
