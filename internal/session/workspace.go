// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"bytes"
	"sync"

	"sqlcopilot/cli/internal/backend"
)

// Workspace is the session-scoped data shown next to the query box.
// Each slice is replaced wholesale; nil means not loaded.
type Workspace struct {
	epoch *Epoch

	mu        sync.RWMutex
	freshness []backend.FreshnessEntry
	schema    backend.Document
	semantic  backend.Document
	suggested backend.Document
}

// Snapshot is a point-in-time copy of a Workspace.
type Snapshot struct {
	Freshness []backend.FreshnessEntry
	Schema    backend.Document
	Semantic  backend.Document
	Suggested backend.Document
}

func NewWorkspace(epoch *Epoch) *Workspace {
	if epoch == nil {
		epoch = &Epoch{}
	}
	return &Workspace{epoch: epoch}
}

func (w *Workspace) Epoch() *Epoch { return w.epoch }

// Reset advances the epoch and clears every slice, atomically with respect
// to tagged writes.
func (w *Workspace) Reset() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.freshness, w.schema, w.semantic, w.suggested = nil, nil, nil, nil
	return w.epoch.Advance()
}

// apply runs set under the write lock when tag is still current.
func (w *Workspace) apply(tag uint64, set func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.epoch.Valid(tag) {
		return false
	}
	set()
	return true
}

// SetFreshness replaces the freshness list. It returns false when tag is stale.
func (w *Workspace) SetFreshness(tag uint64, entries []backend.FreshnessEntry) bool {
	cp := append([]backend.FreshnessEntry{}, entries...)
	return w.apply(tag, func() { w.freshness = cp })
}

func (w *Workspace) SetSchema(tag uint64, doc backend.Document) bool {
	cp := clone(doc)
	return w.apply(tag, func() { w.schema = cp })
}

// SetSemantic replaces the persisted semantic layer.
func (w *Workspace) SetSemantic(tag uint64, doc backend.Document) bool {
	cp := clone(doc)
	return w.apply(tag, func() { w.semantic = cp })
}

// SetSuggested replaces the working semantic layer.
func (w *Workspace) SetSuggested(tag uint64, doc backend.Document) bool {
	cp := clone(doc)
	return w.apply(tag, func() { w.suggested = cp })
}

// Freshness returns the entries and whether they have been loaded.
func (w *Workspace) Freshness() ([]backend.FreshnessEntry, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.freshness == nil {
		return nil, false
	}
	return append([]backend.FreshnessEntry{}, w.freshness...), true
}

func (w *Workspace) Schema() backend.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return clone(w.schema)
}

func (w *Workspace) Semantic() backend.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return clone(w.semantic)
}

func (w *Workspace) Suggested() backend.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return clone(w.suggested)
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := Snapshot{
		Schema:    clone(w.schema),
		Semantic:  clone(w.semantic),
		Suggested: clone(w.suggested),
	}
	if w.freshness != nil {
		s.Freshness = append([]backend.FreshnessEntry{}, w.freshness...)
	}
	return s
}

func clone(doc backend.Document) backend.Document {
	if doc == nil {
		return nil
	}
	return bytes.Clone(doc)
}
