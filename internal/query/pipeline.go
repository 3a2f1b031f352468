// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package query turns a natural-language question into a displayable result.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sqlcopilot/cli/internal/auth"
	"sqlcopilot/cli/internal/backend"
	apperrors "sqlcopilot/cli/internal/errors"
	"sqlcopilot/cli/internal/logging"
	"sqlcopilot/cli/internal/session"
)

const (
	// Explanation accompanies every generated statement.
	Explanation = "Here is the generated SQL query."
	// FallbackMessage is used when the server reports failure without a message.
	FallbackMessage = "Something went wrong."
)

// ErrInFlight is returned when Submit is called while another question is unresolved.
var ErrInFlight = errors.New("query: a question is already being answered")

var examples = []string{
	"What's the total revenue by month?",
	"Show me the top customers",
}

// Querier is the part of the backend the pipeline calls.
type Querier interface {
	Query(ctx context.Context, question string) (*backend.QueryEnvelope, error)
}

// Executor runs generated SQL locally when the server returns no rows.
type Executor interface {
	Run(ctx context.Context, sql string) (columns []string, rows [][]any, truncated bool, err error)
}

// Pipeline submits questions and holds the latest result.
type Pipeline struct {
	api            Querier
	epoch          *session.Epoch
	log            *zap.Logger
	exec           Executor
	onUnauthorized func(context.Context)

	mu       sync.Mutex
	state    State
	question string
	inFlight bool
}

func NewPipeline(api Querier, epoch *session.Epoch, log *zap.Logger) *Pipeline {
	if epoch == nil {
		epoch = &session.Epoch{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{api: api, epoch: epoch, log: log.Named("query")}
}

// SetExecutor enables local execution of SQL-only answers. Nil disables it.
func (p *Pipeline) SetExecutor(e Executor) {
	p.mu.Lock()
	p.exec = e
	p.mu.Unlock()
}

// OnUnauthorized sets the hook called when the server rejects the credential.
func (p *Pipeline) OnUnauthorized(fn func(context.Context)) { p.onUnauthorized = fn }

// Examples returns starter questions.
func Examples() []string { return append([]string(nil), examples...) }

func (p *Pipeline) SetQuestion(q string) {
	p.mu.Lock()
	p.question = q
	p.mu.Unlock()
}

func (p *Pipeline) Question() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.question
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Reset restores the initial empty state and clears the pending question.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.state = State{}
	p.question = ""
	p.mu.Unlock()
}

// Submit answers question. A blank question is a no-op. The previous result is
// cleared before the call resolves, and a response that arrives after the
// session changed is dropped.
func (p *Pipeline) Submit(ctx context.Context, question string) (State, error) {
	q := strings.TrimSpace(question)

	p.mu.Lock()
	if q == "" {
		st := p.state
		p.mu.Unlock()
		return st, nil
	}
	if p.inFlight {
		st := p.state
		p.mu.Unlock()
		return st, ErrInFlight
	}
	p.inFlight = true
	p.state = State{Phase: Loading}
	tag := p.epoch.Current()
	exec := p.exec
	p.mu.Unlock()

	next := p.resolve(ctx, q, exec)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if !p.epoch.Valid(tag) {
		p.log.Debug("discarded answer from a previous session")
		p.state = State{}
		return p.state, nil
	}
	p.state = next
	return next, nil
}

func (p *Pipeline) resolve(ctx context.Context, q string, exec Executor) State {
	env, err := p.api.Query(ctx, q)
	if err != nil {
		if apperrors.Is(err, apperrors.Unauthorized) {
			if p.onUnauthorized != nil {
				p.onUnauthorized(ctx)
			}
			return State{Phase: Failed, Err: auth.ExpiredMessage}
		}
		p.log.Warn("query failed", zap.Error(err))
		return State{Phase: Failed, Err: apperrors.ConnectivityMessage}
	}

	if !env.Success {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = FallbackMessage
		}
		return State{Phase: Failed, Err: msg}
	}

	r := env.Response
	if r == nil {
		p.log.Warn("success without response body")
		return State{Phase: Failed, Err: apperrors.ConnectivityMessage}
	}

	switch r.Type {
	case backend.TypeQueryResult:
		return p.answer(ctx, r, exec)
	case backend.TypeError:
		msg := strings.TrimSpace(r.Error)
		if msg == "" {
			msg = FallbackMessage
		}
		return State{Phase: Failed, Err: msg}
	default:
		p.log.Debug("unrecognized response type", zap.String("type", r.Type))
		return State{Phase: Empty}
	}
}

func (p *Pipeline) answer(ctx context.Context, r *backend.QueryResponse, exec Executor) State {
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			p.log.Warn("row width does not match columns",
				zap.Int("row", i), zap.Int("cells", len(row)), zap.Int("columns", len(r.Columns)))
			return State{Phase: Failed, Err: apperrors.ConnectivityMessage}
		}
	}

	st := State{Phase: Answered, SQL: &SQL{Query: r.SQL, Explanation: Explanation}}
	if len(r.Columns) == 0 && exec != nil && strings.TrimSpace(r.SQL) != "" {
		cols, rows, truncated, err := exec.Run(ctx, r.SQL)
		if err != nil {
			p.log.Info("local execution failed", zap.Error(err))
			st.LocalErr = logging.Mask(err.Error())
			return st
		}
		st.Results = &Results{Columns: cols, Rows: rows, Truncated: truncated}
		return st
	}
	st.Results = &Results{Columns: r.Columns, Rows: r.Rows}
	return st
}
