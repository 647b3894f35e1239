// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth seals WordPress application passwords at rest and checks API
// bearer tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Argon2 parameters used to stretch the application secret into a box key.
const (
	Argon2Time    = 2
	Argon2Memory  = 19 * 1024
	Argon2Threads = 1
	Argon2KeyLen  = 32
)

const (
	sealedPrefix = "sb1:"
	nonceLen     = 24
	keySalt      = "wpautoblog/site-credentials/v1"
)

// ErrOpen is returned when a sealed value cannot be decrypted.
var ErrOpen = errors.New("auth: cannot open sealed value")

// Sealer encrypts site credentials with NaCl secretbox.
type Sealer struct {
	key [Argon2KeyLen]byte
}

// NewSealer derives the box key from secret.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("auth: empty secret")
	}
	s := &Sealer{}
	derived := argon2.IDKey([]byte(secret), []byte(keySalt), Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)
	copy(s.key[:], derived)
	return s, nil
}

// Seal encrypts plaintext and returns a printable "sb1:" value.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal. Values without the "sb1:" prefix
// are returned unchanged so rows written before sealing keep working.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(raw) < nonceLen+secretbox.Overhead {
		return "", ErrOpen
	}

	var nonce [nonceLen]byte
	copy(nonce[:], raw[:nonceLen])
	plain, ok := secretbox.Open(nil, raw[nonceLen:], &nonce, &s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// TokenMatches compares a presented bearer token with the configured one in
// constant time. An empty configured token never matches.
func TokenMatches(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
