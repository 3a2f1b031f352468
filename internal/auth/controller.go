// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"sync"

	apperrors "sqlcopilot/cli/internal/errors"

	"go.uber.org/zap"
)

// Fallback messages used when the server does not explain a rejection.
const (
	RegisterFailedMessage = "Registration failed."
	LoginFailedMessage    = "Login failed."
	StoreFailedMessage    = "Could not save the session credential."
	ExpiredMessage        = "Session expired. Please log in again."
)

var (
	// ErrBusy is returned when Submit is called while another submission is in flight.
	ErrBusy = errors.New("auth: submission already in progress")
	// ErrAlreadyAuthenticated is returned when Submit is called with a live session.
	ErrAlreadyAuthenticated = errors.New("auth: already authenticated")
)

// Authenticator is the part of the backend the controller needs.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// Listener observes state transitions. It runs synchronously on the goroutine
// that caused the transition, after the controller lock is released.
type Listener func(ctx context.Context, t Transition)

// Controller drives login, registration and session teardown.
type Controller struct {
	api   Authenticator
	store TokenStore
	log   *zap.Logger

	mu        sync.Mutex
	state     State
	form      Form
	message   string
	attempt   uint64
	listeners []Listener
}

// NewController starts Authenticated when store already holds a credential.
func NewController(api Authenticator, store TokenStore, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{api: api, store: store, log: log, state: Anonymous}
	if _, ok := store.Get(); ok {
		c.state = Authenticated
	}
	return c
}

// Subscribe registers l for all future transitions.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	return Status{State: c.state, Mode: c.form.Mode, Username: c.form.Username, Message: c.message}
}

// Form returns a copy of the current form input.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) SetUsername(v string) {
	c.mu.Lock()
	c.form.Username = v
	c.mu.Unlock()
}

func (c *Controller) SetPassword(v string) {
	c.mu.Lock()
	c.form.Password = v
	c.mu.Unlock()
}

func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	c.form.Mode = m
	c.mu.Unlock()
}

// ToggleMode flips login and register. It never touches session state.
func (c *Controller) ToggleMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form.Mode == ModeLogin {
		c.form.Mode = ModeRegister
	} else {
		c.form.Mode = ModeLogin
	}
	return c.form.Mode
}

// Submit runs the form. In register mode a successful registration chains into
// exactly one login with the same credentials; a failed one never logs in.
// Failures land in the returned Status; the error is reserved for misuse.
func (c *Controller) Submit(ctx context.Context) (Status, error) {
	c.mu.Lock()
	switch c.state {
	case Authenticating:
		st := c.statusLocked()
		c.mu.Unlock()
		return st, ErrBusy
	case Authenticated:
		st := c.statusLocked()
		c.mu.Unlock()
		return st, ErrAlreadyAuthenticated
	}
	from := c.state
	form := c.form
	attempt := c.attempt
	c.state = Authenticating
	c.message = ""
	c.mu.Unlock()
	c.notify(ctx, Transition{From: from, To: Authenticating})

	if form.Mode == ModeRegister {
		if err := c.api.Register(ctx, form.Username, form.Password); err != nil {
			c.log.Info("registration rejected", zap.String("username", form.Username), zap.Error(err))
			return c.fail(ctx, attempt, failureMessage(err, RegisterFailedMessage)), nil
		}
		c.log.Debug("registration accepted, logging in", zap.String("username", form.Username))
	}

	token, err := c.api.Login(ctx, form.Username, form.Password)
	if err != nil {
		c.log.Info("login rejected", zap.String("username", form.Username), zap.Error(err))
		return c.fail(ctx, attempt, failureMessage(err, LoginFailedMessage)), nil
	}

	c.mu.Lock()
	if c.attempt != attempt {
		// Logged out while the request was outstanding; drop the credential.
		st := c.statusLocked()
		c.mu.Unlock()
		return st, nil
	}
	if err := c.store.Set(token); err != nil {
		c.mu.Unlock()
		c.log.Error("storing credential failed", zap.Error(err))
		return c.fail(ctx, attempt, StoreFailedMessage), nil
	}
	c.state = Authenticated
	c.form = Form{Mode: form.Mode}
	st := c.statusLocked()
	c.mu.Unlock()

	c.notify(ctx, Transition{From: Authenticating, To: Authenticated, Username: form.Username})
	return st, nil
}

func (c *Controller) fail(ctx context.Context, attempt uint64, msg string) Status {
	c.mu.Lock()
	if c.attempt != attempt {
		st := c.statusLocked()
		c.mu.Unlock()
		return st
	}
	c.state = AuthFailed
	c.message = msg
	st := c.statusLocked()
	c.mu.Unlock()

	c.notify(ctx, Transition{From: Authenticating, To: AuthFailed})
	return st
}

// Logout clears the credential and returns to Anonymous. It is purely local
// and idempotent; a keychain failure is reported but the state is reset anyway.
func (c *Controller) Logout(ctx context.Context) error {
	return c.signOut(ctx, "")
}

// Expire ends the session after the server rejected the credential.
func (c *Controller) Expire(ctx context.Context) error {
	c.log.Warn("credential rejected by server, signing out")
	return c.signOut(ctx, ExpiredMessage)
}

func (c *Controller) signOut(ctx context.Context, msg string) error {
	err := c.store.Clear()
	if err != nil {
		c.log.Error("clearing credential failed", zap.Error(err))
	}

	c.mu.Lock()
	from := c.state
	c.state = Anonymous
	c.message = msg
	c.attempt++
	c.mu.Unlock()

	if from != Anonymous {
		c.notify(ctx, Transition{From: from, To: Anonymous})
	}
	return err
}

func (c *Controller) notify(ctx context.Context, t Transition) {
	c.mu.Lock()
	ls := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range ls {
		l(ctx, t)
	}
}

// failureMessage prefers the server's explanation, then the connectivity
// message for transport problems, then fallback.
func failureMessage(err error, fallback string) string {
	switch apperrors.KindOf(err) {
	case apperrors.Server, apperrors.Unauthorized:
		if msg := apperrors.MessageOf(err); msg != "" {
			return msg
		}
	case apperrors.Transport, apperrors.Decode:
		return apperrors.ConnectivityMessage
	}
	return fallback
}
