// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the per-session workspace (freshness, schema and
// semantic-layer documents) and loads it when a session begins.
//
// Every asynchronous write is tagged with the Epoch current when it started.
// Signing in or out advances the epoch, so responses that belong to an earlier
// session are dropped instead of leaking into the next one.
package session

import "sync/atomic"

// Epoch is a monotonically increasing session counter. The zero value is ready.
type Epoch struct {
	n atomic.Uint64
}

// Current returns the tag of the live session.
func (e *Epoch) Current() uint64 { return e.n.Load() }

// Advance starts a new session lifetime and returns its tag.
func (e *Epoch) Advance() uint64 { return e.n.Add(1) }

// Valid reports whether tag still identifies the live session.
func (e *Epoch) Valid(tag uint64) bool { return e.n.Load() == tag }
