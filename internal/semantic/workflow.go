// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package semantic implements the semantic-layer workflow: load the schema,
// ask the service for a suggested layer, edit it, and persist it.
package semantic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sqlcopilot/cli/internal/backend"
	apperrors "sqlcopilot/cli/internal/errors"
	"sqlcopilot/cli/internal/session"
)

var (
	ErrNotAuthenticated = errors.New("semantic: not signed in")
	ErrInvalidDocument  = errors.New("semantic: document is not valid JSON")
	// ErrRejected means the service did not acknowledge the update.
	ErrRejected = errors.New("semantic: update was not accepted")
	// ErrNotDurable means the update was accepted but could not be saved.
	ErrNotDurable = errors.New("semantic: update accepted but not saved")
)

// Outcome is the effect an operation had on the workspace.
type Outcome int

const (
	Applied Outcome = iota
	// Skipped means a precondition was not met and nothing was sent.
	Skipped
	Failed
	// Discarded means the response arrived after the session changed.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// API is the part of the backend the workflow calls.
type API interface {
	Schema(ctx context.Context) (backend.Document, error)
	SuggestSemantic(ctx context.Context, schema backend.Document) (backend.Document, error)
	UpdateSemantic(ctx context.Context, doc backend.Document) (bool, error)
	SaveSemantic(ctx context.Context) error
}

// Workflow edits the semantic-layer slots of a session Workspace.
type Workflow struct {
	api            API
	ws             *session.Workspace
	tokens         backend.TokenSource
	log            *zap.Logger
	onUnauthorized func(context.Context)
}

func NewWorkflow(api API, ws *session.Workspace, tokens backend.TokenSource, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{api: api, ws: ws, tokens: tokens, log: log.Named("semantic")}
}

// OnUnauthorized sets the hook called when the service rejects the credential.
func (w *Workflow) OnUnauthorized(fn func(context.Context)) { w.onUnauthorized = fn }

func (w *Workflow) signedIn() bool {
	_, ok := w.tokens.Get()
	return ok
}

// LoadSchema replaces the schema document. On failure the previous one is kept.
func (w *Workflow) LoadSchema(ctx context.Context) (Outcome, error) {
	if !w.signedIn() {
		return Skipped, ErrNotAuthenticated
	}
	tag := w.ws.Epoch().Current()
	doc, err := w.api.Schema(ctx)
	if err != nil {
		w.log.Warn("loading schema failed", zap.Error(err))
		w.unauthorized(ctx, err)
		return Failed, err
	}
	if !w.ws.SetSchema(tag, doc) {
		return Discarded, nil
	}
	return Applied, nil
}

// Suggest replaces the working document with the service's suggestion for
// the loaded schema. Without a schema it does nothing.
func (w *Workflow) Suggest(ctx context.Context) (Outcome, error) {
	if !w.signedIn() {
		return Skipped, ErrNotAuthenticated
	}
	schema := w.ws.Schema()
	if schema == nil {
		return Skipped, nil
	}
	tag := w.ws.Epoch().Current()
	doc, err := w.api.SuggestSemantic(ctx, schema)
	if err != nil {
		w.log.Warn("suggesting semantic layer failed", zap.Error(err))
		w.unauthorized(ctx, err)
		return Failed, err
	}
	if !w.ws.SetSuggested(tag, doc) {
		return Discarded, nil
	}
	return Applied, nil
}

// Edit replaces the working document with text when it parses as JSON.
// Invalid text leaves the working document unchanged.
func (w *Workflow) Edit(text string) error {
	if !w.signedIn() {
		return ErrNotAuthenticated
	}
	doc, err := Parse(text)
	if err != nil {
		return err
	}
	w.ws.SetSuggested(w.ws.Epoch().Current(), doc)
	return nil
}

// Save submits the working document. Only an explicit acknowledgement makes
// it the persisted document and triggers the durability request. A failed
// durability request does not undo the persisted copy.
func (w *Workflow) Save(ctx context.Context) (Outcome, error) {
	if !w.signedIn() {
		return Skipped, ErrNotAuthenticated
	}
	doc := w.ws.Suggested()
	if doc == nil {
		return Skipped, nil
	}
	tag := w.ws.Epoch().Current()

	ok, err := w.api.UpdateSemantic(ctx, doc)
	if err != nil {
		w.log.Warn("updating semantic layer failed", zap.Error(err))
		w.unauthorized(ctx, err)
		return Failed, err
	}
	if !ok {
		return Failed, ErrRejected
	}
	if !w.ws.SetSemantic(tag, doc) {
		return Discarded, nil
	}

	if err := w.api.SaveSemantic(ctx); err != nil {
		w.log.Warn("saving semantic layer failed", zap.Error(err))
		w.unauthorized(ctx, err)
		return Applied, fmt.Errorf("%w: %w", ErrNotDurable, err)
	}
	return Applied, nil
}

func (w *Workflow) unauthorized(ctx context.Context, err error) {
	if apperrors.Is(err, apperrors.Unauthorized) && w.onUnauthorized != nil {
		w.onUnauthorized(ctx)
	}
}
