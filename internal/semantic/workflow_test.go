// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcopilot/cli/internal/backend"
	apperrors "sqlcopilot/cli/internal/errors"
	"sqlcopilot/cli/internal/session"
)

type token string

func (s token) Get() (string, bool) { return string(s), s != "" }

type fakeAPI struct {
	schema     backend.Document
	schemaErr  error
	suggested  backend.Document
	suggestErr error
	ack        bool
	updateErr  error
	saveErr    error

	calls   []string
	updated backend.Document
}

func (f *fakeAPI) Schema(context.Context) (backend.Document, error) {
	f.calls = append(f.calls, "schema")
	return f.schema, f.schemaErr
}

func (f *fakeAPI) SuggestSemantic(_ context.Context, schema backend.Document) (backend.Document, error) {
	f.calls = append(f.calls, "suggest")
	return f.suggested, f.suggestErr
}

func (f *fakeAPI) UpdateSemantic(_ context.Context, doc backend.Document) (bool, error) {
	f.calls = append(f.calls, "update")
	f.updated = doc
	return f.ack, f.updateErr
}

func (f *fakeAPI) SaveSemantic(context.Context) error {
	f.calls = append(f.calls, "save")
	return f.saveErr
}

func newWorkflow(api *fakeAPI, tok string) (*Workflow, *session.Workspace) {
	ws := session.NewWorkspace(nil)
	return NewWorkflow(api, ws, token(tok), nil), ws
}

func TestRequiresSession(t *testing.T) {
	api := &fakeAPI{}
	w, _ := newWorkflow(api, "")
	ctx := context.Background()

	_, err := w.LoadSchema(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = w.Suggest(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, w.Edit(`{}`), ErrNotAuthenticated)
	_, err = w.Save(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, api.calls)
}

func TestLoadSchema_FailureKeepsPrevious(t *testing.T) {
	api := &fakeAPI{schema: backend.Document(`{"tables":{"a":{}}}`)}
	w, ws := newWorkflow(api, "T1")

	out, err := w.LoadSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Applied, out)

	api.schemaErr = apperrors.New(apperrors.Transport, "down")
	out, err = w.LoadSchema(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Failed, out)
	assert.JSONEq(t, `{"tables":{"a":{}}}`, string(ws.Schema()))
}

func TestSuggest_RequiresSchema(t *testing.T) {
	api := &fakeAPI{suggested: backend.Document(`{"tables":{}}`)}
	w, ws := newWorkflow(api, "T1")

	out, err := w.Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Skipped, out)
	assert.Empty(t, api.calls)

	ws.SetSchema(ws.Epoch().Current(), backend.Document(`{"tables":{"orders":{}}}`))
	out, err = w.Suggest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.JSONEq(t, `{"tables":{}}`, string(ws.Suggested()))
}

func TestEdit(t *testing.T) {
	w, ws := newWorkflow(&fakeAPI{}, "T1")

	require.NoError(t, w.Edit("{\n  \"tables\": {\"x\": {}}\n}"))
	assert.Equal(t, `{"tables":{"x":{}}}`, string(ws.Suggested()))

	err := w.Edit(`{"tables": `)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.Equal(t, `{"tables":{"x":{}}}`, string(ws.Suggested()), "invalid edit keeps previous document")
}

func TestSave_NoWorkingDocumentIsNoOp(t *testing.T) {
	api := &fakeAPI{ack: true}
	w, _ := newWorkflow(api, "T1")

	out, err := w.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Skipped, out)
	assert.Empty(t, api.calls)
}

func TestSave_AcknowledgedPersistsThenSaves(t *testing.T) {
	api := &fakeAPI{ack: true}
	w, ws := newWorkflow(api, "T1")
	require.NoError(t, w.Edit(`{"tables":{"orders":{"metrics":["revenue"]}}}`))

	out, err := w.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, []string{"update", "save"}, api.calls)
	assert.Equal(t, string(ws.Suggested()), string(ws.Semantic()))
	assert.Equal(t, `{"tables":{"orders":{"metrics":["revenue"]}}}`, string(api.updated))

	// Persisted is a copy: further edits do not leak into it.
	require.NoError(t, w.Edit(`{"tables":{}}`))
	assert.Equal(t, `{"tables":{"orders":{"metrics":["revenue"]}}}`, string(ws.Semantic()))
}

func TestSave_NegativeAckLeavesPersistedUntouched(t *testing.T) {
	api := &fakeAPI{ack: false}
	w, ws := newWorkflow(api, "T1")
	ws.SetSemantic(ws.Epoch().Current(), backend.Document(`{"old":true}`))
	require.NoError(t, w.Edit(`{"new":true}`))

	out, err := w.Save(context.Background())
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, Failed, out)
	assert.Equal(t, []string{"update"}, api.calls)
	assert.Equal(t, `{"old":true}`, string(ws.Semantic()))
}

func TestSave_DurabilityFailureKeepsPersisted(t *testing.T) {
	api := &fakeAPI{ack: true, saveErr: errors.New("disk full")}
	w, ws := newWorkflow(api, "T1")
	require.NoError(t, w.Edit(`{"new":true}`))

	out, err := w.Save(context.Background())
	assert.ErrorIs(t, err, ErrNotDurable)
	assert.Equal(t, Applied, out)
	assert.Equal(t, `{"new":true}`, string(ws.Semantic()))
}

func TestSave_UnauthorizedCallsHook(t *testing.T) {
	api := &fakeAPI{updateErr: apperrors.New(apperrors.Unauthorized, "")}
	w, _ := newWorkflow(api, "T1")
	require.NoError(t, w.Edit(`{}`))

	hooked := false
	w.OnUnauthorized(func(context.Context) { hooked = true })
	out, _ := w.Save(context.Background())
	assert.Equal(t, Failed, out)
	assert.True(t, hooked)
}
