// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure crossing the backend boundary carries a machine-readable Kind so
// callers can decide between a generic connectivity message, a verbatim server
// message, or a silent session expiry without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Transport indicates the request never produced an HTTP response.
	Transport Kind = "transport"
	// Decode indicates the response body was not the JSON we expected.
	Decode Kind = "decode"
	// Unauthorized indicates the server rejected the credential (HTTP 401).
	Unauthorized Kind = "unauthorized"
	// Server indicates a structured, server-reported failure.
	Server Kind = "server"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the human-friendly message of the first *E in err's chain.
func MessageOf(err error) string {
	var e *E
	if stderrors.As(err, &e) {
		return e.Message
	}
	return ""
}

// ConnectivityMessage is shown for every transport or parse failure.
const ConnectivityMessage = "Failed to connect to backend or parse response."
