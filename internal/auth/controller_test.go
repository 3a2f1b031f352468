// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sqlcopilot/cli/internal/errors"
	"sqlcopilot/cli/internal/keychain"
)

type fakeAuth struct {
	mu          sync.Mutex
	registerErr error
	loginErr    error
	token       string
	registers   []string
	logins      []string
	block       chan struct{}
}

func (f *fakeAuth) Register(_ context.Context, u, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers = append(f.registers, u+":"+p)
	return f.registerErr
}

func (f *fakeAuth) Login(_ context.Context, u, p string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, u+":"+p)
	return f.token, f.loginErr
}

func newStore() *KeychainStore {
	return NewKeychainStore(keychain.NewManager(keyring.NewArrayKeyring(nil)))
}

func TestNewController_StartsAuthenticatedWithStoredToken(t *testing.T) {
	store := newStore()
	require.NoError(t, store.Set("T1"))

	c := NewController(&fakeAuth{}, store, nil)
	assert.Equal(t, Authenticated, c.Status().State)

	c2 := NewController(&fakeAuth{}, newStore(), nil)
	assert.Equal(t, Anonymous, c2.Status().State)
}

func TestSubmit_LoginSuccessStoresTokenAndClearsForm(t *testing.T) {
	store := newStore()
	api := &fakeAuth{token: "T1"}
	c := NewController(api, store, nil)

	var seen []Transition
	c.Subscribe(func(_ context.Context, tr Transition) { seen = append(seen, tr) })

	c.SetUsername("alice")
	c.SetPassword("pw")
	st, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Authenticated, st.State)
	tok, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "T1", tok)
	assert.Equal(t, Form{Mode: ModeLogin}, c.Form())
	assert.Equal(t, []string{"alice:pw"}, api.logins)
	assert.Equal(t, []Transition{
		{From: Anonymous, To: Authenticating},
		{From: Authenticating, To: Authenticated, Username: "alice"},
	}, seen)
}

func TestSubmit_RegisterChainsExactlyOneLogin(t *testing.T) {
	api := &fakeAuth{token: "T2"}
	c := NewController(api, newStore(), nil)
	c.SetMode(ModeRegister)
	c.SetUsername("bob")
	c.SetPassword("secret")

	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authenticated, st.State)
	assert.Equal(t, []string{"bob:secret"}, api.registers)
	assert.Equal(t, []string{"bob:secret"}, api.logins)
}

func TestSubmit_RegisterFailureNeverLogsIn(t *testing.T) {
	store := newStore()
	api := &fakeAuth{registerErr: apperrors.New(apperrors.Server, "Username already registered")}
	c := NewController(api, store, nil)
	c.SetMode(ModeRegister)
	c.SetUsername("bob")
	c.SetPassword("secret")

	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AuthFailed, st.State)
	assert.Equal(t, "Username already registered", st.Message)
	assert.Empty(t, api.logins)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestSubmit_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		err  error
		want string
	}{
		{"server detail", ModeLogin, apperrors.New(apperrors.Server, "Incorrect username or password"), "Incorrect username or password"},
		{"login without detail", ModeLogin, apperrors.New(apperrors.Server, ""), LoginFailedMessage},
		{"register without detail", ModeRegister, apperrors.New(apperrors.Server, ""), RegisterFailedMessage},
		{"transport", ModeLogin, apperrors.Wrap(apperrors.Transport, "dial", context.DeadlineExceeded), apperrors.ConnectivityMessage},
		{"decode", ModeLogin, apperrors.New(apperrors.Decode, "bad json"), apperrors.ConnectivityMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAuth{}
			if tt.mode == ModeRegister {
				api.registerErr = tt.err
			} else {
				api.loginErr = tt.err
			}
			c := NewController(api, newStore(), nil)
			c.SetMode(tt.mode)
			st, err := c.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, AuthFailed, st.State)
			assert.Equal(t, tt.want, st.Message)
		})
	}
}

func TestSubmit_RetryAfterFailure(t *testing.T) {
	api := &fakeAuth{loginErr: apperrors.New(apperrors.Server, "nope")}
	c := NewController(api, newStore(), nil)

	st, _ := c.Submit(context.Background())
	require.Equal(t, AuthFailed, st.State)

	api.loginErr = nil
	api.token = "T3"
	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authenticated, st.State)
	assert.Empty(t, st.Message)
}

func TestSubmit_RejectsWhileAuthenticated(t *testing.T) {
	store := newStore()
	require.NoError(t, store.Set("T1"))
	c := NewController(&fakeAuth{}, store, nil)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyAuthenticated)
}

func TestSubmit_BusyWhileInFlight(t *testing.T) {
	api := &fakeAuth{token: "T1", block: make(chan struct{})}
	c := NewController(api, newStore(), nil)

	done := make(chan Status)
	go func() {
		st, _ := c.Submit(context.Background())
		done <- st
	}()

	require.Eventually(t, func() bool { return c.Status().State == Authenticating }, time.Second, time.Millisecond)
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(api.block)
	assert.Equal(t, Authenticated, (<-done).State)
}

func TestSubmit_LogoutDuringLoginDropsToken(t *testing.T) {
	store := newStore()
	api := &fakeAuth{token: "T1", block: make(chan struct{})}
	c := NewController(api, store, nil)

	done := make(chan Status)
	go func() {
		st, _ := c.Submit(context.Background())
		done <- st
	}()
	require.Eventually(t, func() bool { return c.Status().State == Authenticating }, time.Second, time.Millisecond)

	require.NoError(t, c.Logout(context.Background()))
	close(api.block)

	assert.Equal(t, Anonymous, (<-done).State)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestLogout_Idempotent(t *testing.T) {
	store := newStore()
	require.NoError(t, store.Set("T1"))
	c := NewController(&fakeAuth{}, store, nil)

	var toAnon int
	c.Subscribe(func(_ context.Context, tr Transition) {
		if tr.To == Anonymous {
			toAnon++
		}
	})

	require.NoError(t, c.Logout(context.Background()))
	require.NoError(t, c.Logout(context.Background()))

	assert.Equal(t, Anonymous, c.Status().State)
	assert.Equal(t, 1, toAnon)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestExpire_SetsMessage(t *testing.T) {
	store := newStore()
	require.NoError(t, store.Set("T1"))
	c := NewController(&fakeAuth{}, store, nil)

	require.NoError(t, c.Expire(context.Background()))
	st := c.Status()
	assert.Equal(t, Anonymous, st.State)
	assert.Equal(t, ExpiredMessage, st.Message)
}

func TestToggleMode_DoesNotTouchSession(t *testing.T) {
	c := NewController(&fakeAuth{}, newStore(), nil)
	assert.Equal(t, ModeRegister, c.ToggleMode())
	assert.Equal(t, ModeLogin, c.ToggleMode())
	assert.Equal(t, Anonymous, c.Status().State)
}
