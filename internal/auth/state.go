// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

// State is the session state of the controller.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	AuthFailed
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case AuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// SignedIn reports whether a session credential is expected to exist.
func (s State) SignedIn() bool { return s == Authenticated }

// Mode selects what Submit does.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Form is the transient input of the auth form.
type Form struct {
	Mode     Mode
	Username string
	Password string
}

// Status is a snapshot of the controller for presentation.
// Message is set in AuthFailed, and after a session expiry.
type Status struct {
	State    State
	Mode     Mode
	Username string
	Message  string
}

// Transition describes a state change delivered to listeners.
// Username is set on the transition into Authenticated.
type Transition struct {
	From     State
	To       State
	Username string
}
