// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides thread-safe access to the OS credential store for sqlcopilot.
//
// Two named slots are used: the session credential and the optional Postgres DSN
// for local execution. The backing keyring is chosen per platform (macOS Keychain,
// Windows Credential Manager, Secret Service, pass) with an encrypted file keyring
// as the last resort, so a session survives process restarts everywhere.
package keychain

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "sqlcopilot"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAccessToken = "auth_access_token"
	KeyDBDSN       = "db_dsn"
)

// ErrNotFound is returned when a slot holds no value.
var ErrNotFound = errors.New("keychain: item not found")

// Options controls how the OS keyring is opened.
type Options struct {
	// Backend forces a single keyring backend (e.g. "file", "keychain", "secret-service").
	// Empty selects the platform defaults.
	Backend string
	// FileDir is where the encrypted file backend keeps its items.
	FileDir string
	// FilePassword unlocks the file backend without prompting when set.
	FilePassword string
}

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager wraps an already opened keyring. Tests pass keyring.NewArrayKeyring(nil).
func NewManager(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// Open opens the OS keyring according to opts.
func Open(opts Options) (*Manager, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainName:             "login",
		KeychainTrustApplication: true,
		LibSecretCollectionName:  ServiceName,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		FileDir:                  opts.FileDir,
		FilePasswordFunc:         filePrompt(opts.FilePassword),
	}
	if opts.Backend != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(opts.Backend)}
	} else {
		cfg.AllowedBackends = append(nativeBackends(), keyring.FileBackend)
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewManager(ring), nil
}

// nativeBackends lists the platform backends that are actually compiled in,
// in keyring's own preference order.
func nativeBackends() []keyring.BackendType {
	var out []keyring.BackendType
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			out = append(out, b)
		}
	}
	return out
}

func filePrompt(password string) keyring.PromptFunc {
	if password == "" {
		password = os.Getenv("SQLCOPILOT_KEYRING_PASSWORD")
	}
	if password != "" {
		return keyring.FixedStringPrompt(password)
	}
	return keyring.TerminalPrompt
}

// SaveAccessToken stores the session credential.
func (m *Manager) SaveAccessToken(token string) error {
	return m.set(KeyAccessToken, token)
}

// LoadAccessToken retrieves the session credential or ErrNotFound.
func (m *Manager) LoadAccessToken() (string, error) {
	return m.get(KeyAccessToken)
}

// ClearAuth removes the session credential. Removing a missing item is not an error.
func (m *Manager) ClearAuth() error {
	return m.remove(KeyAccessToken)
}

// SaveDBDSN stores the database DSN used for local execution.
func (m *Manager) SaveDBDSN(dsn string) error {
	return m.set(KeyDBDSN, dsn)
}

// LoadDBDSN retrieves the database DSN or ErrNotFound.
func (m *Manager) LoadDBDSN() (string, error) {
	return m.get(KeyDBDSN)
}

// ClearDB removes DB-related secrets from the keychain.
func (m *Manager) ClearDB() error {
	return m.remove(KeyDBDSN)
}

// ClearAll removes every secret sqlcopilot stores.
func (m *Manager) ClearAll() error {
	return errors.Join(m.ClearAuth(), m.ClearDB())
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

func (m *Manager) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return err
	}
	return nil
}
