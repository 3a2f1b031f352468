// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcopilot/cli/internal/auth"
	"sqlcopilot/cli/internal/backend"
	"sqlcopilot/cli/internal/config"
	"sqlcopilot/cli/internal/keychain"
	"sqlcopilot/cli/internal/query"
	"sqlcopilot/cli/internal/session"
)

// fakeBackend serves the endpoints with canned responses.
type fakeBackend struct {
	mu          sync.Mutex
	queryBody   string
	queryStatus int
	requests    []string
	authHeaders map[string]string

	schemaStarted chan struct{}
	schemaGate    chan struct{}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if f.authHeaders == nil {
		f.authHeaders = map[string]string{}
	}
	f.authHeaders[r.URL.Path] = r.Header.Get("Authorization")
	queryBody, queryStatus := f.queryBody, f.queryStatus
	started, gate := f.schemaStarted, f.schemaGate
	f.mu.Unlock()

	switch r.URL.Path {
	case "/auth/register":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	case "/auth/login":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"T1","token_type":"bearer"}`)
	case "/freshness":
		_, _ = io.WriteString(w, `{"freshness":[{"table":"orders","timestamp_column":"created_at","last_loaded":"2024-05-01T10:00:00"}]}`)
	case "/schema":
		if started != nil {
			close(started)
			<-gate
		}
		_, _ = io.WriteString(w, `{"tables":{"orders":{"columns":["id","amount"]}}}`)
	case "/semantic":
		_, _ = io.WriteString(w, `{"tables":{}}`)
	case "/query":
		if queryStatus != 0 {
			w.WriteHeader(queryStatus)
		}
		_, _ = io.WriteString(w, queryBody)
	default:
		http.NotFound(w, r)
	}
}

func newClient(t *testing.T, fb *fakeBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	cfg, err := config.Load(config.NewViper(t.TempDir()))
	require.NoError(t, err)
	cfg.APIURL = srv.URL

	return New(Options{
		Config:   cfg,
		Keys:     keychain.NewManager(keyring.NewArrayKeyring(nil)),
		StateDir: t.TempDir(),
	})
}

func login(t *testing.T, c *Client) {
	t.Helper()
	c.Auth.SetUsername("alice")
	c.Auth.SetPassword("pw")
	st, err := c.Auth.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, auth.Authenticated, st.State, st.Message)
}

func TestLoginLoadsWorkspace(t *testing.T) {
	fb := &fakeBackend{}
	c := newClient(t, fb)
	login(t, c)

	rep, ok := c.WaitLoaded()
	require.True(t, ok)
	assert.Equal(t, session.Report{Freshness: session.Loaded, Schema: session.Loaded, Semantic: session.Loaded}, rep)

	entries, loaded := c.Workspace.Freshness()
	require.True(t, loaded)
	assert.Equal(t, "orders", entries[0].Table)
	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Equal(t, "Bearer T1", fb.authHeaders["/schema"])
}

func TestProfileFollowsSession(t *testing.T) {
	c := newClient(t, &fakeBackend{})
	login(t, c)
	c.WaitLoaded()

	p, err := c.Profile()
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Account)
	assert.False(t, p.SignedInAt.IsZero())

	require.NoError(t, c.Auth.Logout(context.Background()))
	p, err = c.Profile()
	require.NoError(t, err)
	assert.Empty(t, p.Account)
}

func TestLoginFailureShowsServerDetail(t *testing.T) {
	c := newClient(t, &fakeBackend{})
	c.Auth.SetUsername("alice")
	c.Auth.SetPassword("wrong")

	st, err := c.Auth.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.AuthFailed, st.State)
	assert.Equal(t, "Incorrect username or password", st.Message)
	assert.Equal(t, "alice", c.Auth.Form().Username, "form is preserved on failure")
}

func TestAskFormatsRevenue(t *testing.T) {
	fb := &fakeBackend{queryBody: `{"success":true,"response":{"type":"query_result","sql":"SELECT month, SUM(amount) AS revenue FROM orders GROUP BY 1","columns":["month","revenue"],"rows":[["2024-01",45230.5],["2024-02",1675]]}}`}
	c := newClient(t, fb)
	login(t, c)

	st, err := c.Query.Submit(context.Background(), query.Examples()[0])
	require.NoError(t, err)
	require.Equal(t, query.Answered, st.Phase)
	assert.Equal(t, query.Explanation, st.SQL.Explanation)

	var buf bytes.Buffer
	require.NoError(t, c.Format.Render(&buf, "table", st.Results.Columns, st.Results.Rows))
	assert.Contains(t, buf.String(), "45,230.50")
	assert.Contains(t, buf.String(), "1,675")
}

func TestAskServerFailure(t *testing.T) {
	fb := &fakeBackend{queryBody: `{"success":false,"error":"no such table: ordrs"}`, queryStatus: http.StatusBadRequest}
	c := newClient(t, fb)
	login(t, c)

	st, err := c.Query.Submit(context.Background(), "revenue from ordrs")
	require.NoError(t, err)
	assert.Equal(t, query.Failed, st.Phase)
	assert.Equal(t, "no such table: ordrs", st.Err)
	assert.Nil(t, st.SQL)
}

func TestUnauthorizedQueryExpiresSession(t *testing.T) {
	fb := &fakeBackend{queryStatus: http.StatusUnauthorized, queryBody: `{"detail":"Could not validate credentials"}`}
	c := newClient(t, fb)
	login(t, c)
	c.WaitLoaded()
	c.Query.SetQuestion("q")

	st, err := c.Query.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, query.State{}, st)

	status := c.Auth.Status()
	assert.Equal(t, auth.Anonymous, status.State)
	assert.Equal(t, auth.ExpiredMessage, status.Message)
	_, ok := c.Tokens.Get()
	assert.False(t, ok)
	assert.Empty(t, c.Query.Question())
	assert.Equal(t, session.Snapshot{}, c.Workspace.Snapshot())
}

func TestLogoutDuringSchemaFetchDiscardsSchema(t *testing.T) {
	fb := &fakeBackend{schemaStarted: make(chan struct{}), schemaGate: make(chan struct{})}
	c := newClient(t, fb)

	c.Auth.SetUsername("alice")
	c.Auth.SetPassword("pw")
	_, err := c.Auth.Submit(context.Background())
	require.NoError(t, err)

	c.mu.Lock()
	load := c.load
	c.mu.Unlock()
	require.NotNil(t, load)

	<-fb.schemaStarted
	require.NoError(t, c.Auth.Logout(context.Background()))
	close(fb.schemaGate)

	rep := load.Wait()
	assert.Equal(t, session.Discarded, rep.Schema)
	assert.Nil(t, c.Workspace.Schema())
	_, loaded := c.Workspace.Freshness()
	assert.False(t, loaded)
}

func TestStartWithStoredSession(t *testing.T) {
	fb := &fakeBackend{}
	c := newClient(t, fb)
	assert.Nil(t, c.Start(context.Background()), "signed out: nothing to load")

	require.NoError(t, c.Tokens.Set("T1"))
	c2 := New(Options{Config: c.Config, Keys: c.Keys})
	load := c2.Start(context.Background())
	require.NotNil(t, load)
	assert.Equal(t, session.Loaded, load.Wait().Schema)
}

func TestSemanticRoundTrip(t *testing.T) {
	fb := &fakeBackend{}
	c := newClient(t, fb)
	login(t, c)
	c.WaitLoaded()

	require.NoError(t, c.Semantic.Edit(`{"tables":{"orders":{"metrics":["revenue"]}}}`))
	assert.JSONEq(t, `{"tables":{"orders":{"metrics":["revenue"]}}}`, string(c.Workspace.Suggested()))
	assert.Equal(t, backend.Document(`{"tables":{}}`), c.Workspace.Semantic())
}

func TestEnableLocalExecWithoutDSN(t *testing.T) {
	c := newClient(t, &fakeBackend{})
	assert.ErrorIs(t, c.EnableLocalExec(context.Background()), ErrNoDSN)
}
