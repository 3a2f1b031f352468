// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sqlcopilot/cli/internal/backend"
	apperrors "sqlcopilot/cli/internal/errors"
)

// ErrStale is returned when a response arrived after the session changed.
var ErrStale = errors.New("session: response discarded after session change")

// Catalog is the part of the backend read when a session begins.
type Catalog interface {
	Freshness(ctx context.Context) ([]backend.FreshnessEntry, error)
	Schema(ctx context.Context) (backend.Document, error)
	Semantic(ctx context.Context) (backend.Document, error)
}

// Outcome is the result of one bootstrap fetch.
type Outcome int

const (
	Pending Outcome = iota
	Loaded
	Failed
	// Discarded means the response arrived for a session that has since ended.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case Discarded:
		return "discarded"
	default:
		return "pending"
	}
}

// Report has one outcome per workspace slice.
type Report struct {
	Freshness Outcome
	Schema    Outcome
	Semantic  Outcome
}

// Load is a running bootstrap.
type Load struct {
	g      errgroup.Group
	report Report
}

// Wait blocks until every fetch resolved.
func (l *Load) Wait() Report {
	_ = l.g.Wait()
	return l.report
}

// Bootstrapper fills the Workspace when a session starts and clears it when it ends.
type Bootstrapper struct {
	api            Catalog
	ws             *Workspace
	log            *zap.Logger
	onUnauthorized func(context.Context)
}

func NewBootstrapper(api Catalog, ws *Workspace, log *zap.Logger) *Bootstrapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrapper{api: api, ws: ws, log: log.Named("bootstrap")}
}

// OnUnauthorized sets the hook called when a fetch is rejected with 401.
func (b *Bootstrapper) OnUnauthorized(fn func(context.Context)) { b.onUnauthorized = fn }

// Enter starts a new session epoch and fetches freshness, schema and the
// persisted semantic layer concurrently. Failures leave their slice unloaded.
func (b *Bootstrapper) Enter(ctx context.Context) *Load {
	tag := b.ws.Epoch().Advance()
	l := &Load{}

	l.g.Go(func() error {
		l.report.Freshness = b.fetch(ctx, "freshness", tag, func(ctx context.Context) (bool, error) {
			entries, err := b.api.Freshness(ctx)
			if err != nil {
				return false, err
			}
			return b.ws.SetFreshness(tag, entries), nil
		})
		return nil
	})
	l.g.Go(func() error {
		l.report.Schema = b.fetch(ctx, "schema", tag, func(ctx context.Context) (bool, error) {
			doc, err := b.api.Schema(ctx)
			if err != nil {
				return false, err
			}
			return b.ws.SetSchema(tag, doc), nil
		})
		return nil
	})
	l.g.Go(func() error {
		l.report.Semantic = b.fetch(ctx, "semantic", tag, func(ctx context.Context) (bool, error) {
			doc, err := b.api.Semantic(ctx)
			if err != nil {
				return false, err
			}
			return b.ws.SetSemantic(tag, doc), nil
		})
		return nil
	})
	return l
}

// Leave ends the session: the epoch advances and every slice is cleared.
func (b *Bootstrapper) Leave() {
	b.ws.Reset()
}

// RefreshFreshness re-fetches the freshness list for the live session.
func (b *Bootstrapper) RefreshFreshness(ctx context.Context) error {
	tag := b.ws.Epoch().Current()
	entries, err := b.api.Freshness(ctx)
	if err != nil {
		b.unauthorized(ctx, err)
		return err
	}
	if !b.ws.SetFreshness(tag, entries) {
		return ErrStale
	}
	return nil
}

func (b *Bootstrapper) fetch(ctx context.Context, slice string, tag uint64, run func(context.Context) (bool, error)) Outcome {
	applied, err := run(ctx)
	switch {
	case err != nil && !b.ws.Epoch().Valid(tag):
		b.log.Debug("stale fetch failed", zap.String("slice", slice), zap.Error(err))
		return Discarded
	case err != nil:
		b.log.Warn("fetch failed", zap.String("slice", slice), zap.Error(err))
		b.unauthorized(ctx, err)
		return Failed
	case !applied:
		b.log.Debug("discarded stale response", zap.String("slice", slice))
		return Discarded
	default:
		return Loaded
	}
}

func (b *Bootstrapper) unauthorized(ctx context.Context, err error) {
	if apperrors.Is(err, apperrors.Unauthorized) && b.onUnauthorized != nil {
		b.onUnauthorized(ctx)
	}
}
