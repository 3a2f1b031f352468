// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app wires the session components into one Client shared by every
// command and by the interactive shell.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"sqlcopilot/cli/internal/auth"
	"sqlcopilot/cli/internal/backend"
	"sqlcopilot/cli/internal/config"
	"sqlcopilot/cli/internal/format"
	"sqlcopilot/cli/internal/keychain"
	"sqlcopilot/cli/internal/query"
	"sqlcopilot/cli/internal/semantic"
	"sqlcopilot/cli/internal/session"
	"sqlcopilot/cli/internal/sqlexec"
)

// Options configures a Client.
type Options struct {
	Config config.Config
	Keys   *keychain.Manager
	Logger *zap.Logger
	// HTTPClient overrides the backend transport (tests).
	HTTPClient *http.Client
	// StateDir holds the non-secret profile; empty disables it.
	StateDir string
}

// Client is the composition root.
type Client struct {
	Config    config.Config
	Log       *zap.Logger
	Keys      *keychain.Manager
	Tokens    auth.TokenStore
	API       *backend.HTTP
	Auth      *auth.Controller
	Workspace *session.Workspace
	Bootstrap *session.Bootstrapper
	Query     *query.Pipeline
	Semantic  *semantic.Workflow
	Format    *format.Formatter

	stateDir string
	mu       sync.Mutex
	load     *session.Load
	exec     *sqlexec.Executor
}

// New builds a Client. Sign-in starts a workspace load; sign-out or session
// expiry clears the workspace, the result state and the pending question.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tokens := auth.NewKeychainStore(opts.Keys)
	api := backend.New(backend.Options{
		BaseURL:   opts.Config.APIURL,
		Endpoints: opts.Config.Endpoints,
		Timeout:   opts.Config.RequestTimeout,
		Tokens:    tokens,
		Logger:    log,
		Client:    opts.HTTPClient,
	})

	epoch := &session.Epoch{}
	ws := session.NewWorkspace(epoch)
	c := &Client{
		Config:    opts.Config,
		Log:       log,
		Keys:      opts.Keys,
		Tokens:    tokens,
		API:       api,
		Auth:      auth.NewController(api, tokens, log),
		Workspace: ws,
		Bootstrap: session.NewBootstrapper(api, ws, log),
		Query:     query.NewPipeline(api, epoch, log),
		Semantic:  semantic.NewWorkflow(api, ws, tokens, log),
		Format:    format.NewFormatter(opts.Config.Locale),
		stateDir:  opts.StateDir,
	}

	expire := func(ctx context.Context) { _ = c.Auth.Expire(ctx) }
	c.Bootstrap.OnUnauthorized(expire)
	c.Query.OnUnauthorized(expire)
	c.Semantic.OnUnauthorized(expire)

	c.Auth.Subscribe(func(ctx context.Context, t auth.Transition) {
		switch t.To {
		case auth.Authenticated:
			c.setLoad(c.Bootstrap.Enter(ctx))
			c.saveProfile(t.Username)
		case auth.Anonymous:
			c.Bootstrap.Leave()
			c.Query.Reset()
			c.setLoad(nil)
			c.clearProfile()
		}
	})
	return c
}

func (c *Client) setLoad(l *session.Load) {
	c.mu.Lock()
	c.load = l
	c.mu.Unlock()
}

func (c *Client) saveProfile(account string) {
	if c.stateDir == "" {
		return
	}
	p := auth.Profile{Account: account, SignedInAt: time.Now().UTC()}
	if err := auth.SaveProfile(c.stateDir, p); err != nil {
		c.Log.Warn("profile not saved", zap.Error(err))
	}
}

func (c *Client) clearProfile() {
	if c.stateDir == "" {
		return
	}
	if err := auth.ClearProfile(c.stateDir); err != nil {
		c.Log.Warn("profile not cleared", zap.Error(err))
	}
}

// Profile returns the stored account profile, if any.
func (c *Client) Profile() (auth.Profile, error) {
	if c.stateDir == "" {
		return auth.Profile{}, nil
	}
	return auth.LoadProfile(c.stateDir)
}

// Start loads the workspace when a stored session already exists.
// It returns nil when signed out.
func (c *Client) Start(ctx context.Context) *session.Load {
	if c.Auth.Status().State != auth.Authenticated {
		return nil
	}
	l := c.Bootstrap.Enter(ctx)
	c.setLoad(l)
	return l
}

// WaitLoaded blocks on the most recent workspace load, if any.
func (c *Client) WaitLoaded() (session.Report, bool) {
	c.mu.Lock()
	l := c.load
	c.mu.Unlock()
	if l == nil {
		return session.Report{}, false
	}
	return l.Wait(), true
}

// ErrNoDSN is returned by EnableLocalExec when no database is configured.
var ErrNoDSN = errors.New("no local database configured; run `sqlcopilot connect`")

// EnableLocalExec connects to the stored database so SQL-only answers are
// executed locally.
func (c *Client) EnableLocalExec(ctx context.Context) error {
	if !c.Config.LocalExec.Enabled {
		return nil
	}
	dsn, err := c.Keys.LoadDBDSN()
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return ErrNoDSN
		}
		return err
	}
	exec, err := sqlexec.Open(ctx, dsn, c.Config.LocalExec.RowLimit, c.Log)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.exec != nil {
		c.exec.Close()
	}
	c.exec = exec
	c.mu.Unlock()
	c.Query.SetExecutor(exec)
	return nil
}

// Close releases the local database pool.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exec != nil {
		c.exec.Close()
		c.exec = nil
	}
}
