// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth owns the session credential and the login/registration state machine.
//
// The credential lives in a TokenStore that every other component reads through an
// injected reference; only the Controller in this package writes it.
package auth

import (
	"sqlcopilot/cli/internal/keychain"
)

// TokenStore is the durable holder of the current session credential.
// Mutations are visible to the next Get immediately; there is no cache.
type TokenStore interface {
	// Get returns the credential and true, or "" and false when unauthenticated.
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// KeychainStore keeps the credential in the access-token slot of the OS keychain.
type KeychainStore struct {
	m *keychain.Manager
}

// NewKeychainStore returns a TokenStore over m.
func NewKeychainStore(m *keychain.Manager) *KeychainStore {
	return &KeychainStore{m: m}
}

// Get reads the slot. Any keychain failure reads as "no session".
func (s *KeychainStore) Get() (string, bool) {
	token, err := s.m.LoadAccessToken()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (s *KeychainStore) Set(token string) error { return s.m.SaveAccessToken(token) }

func (s *KeychainStore) Clear() error { return s.m.ClearAuth() }
