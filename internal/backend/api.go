// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the HTTP client for the SQL Copilot service.
// It defines the API contract for authentication, natural-language queries and
// the schema/semantic-layer catalog. Every failure is a typed *errors.E so callers
// can tell transport problems, credential rejection and server messages apart.
package backend

import "context"

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide mocks for tests.
type API interface {
	// Ping checks connectivity and returns the service banner.
	Ping(ctx context.Context) (string, error)
	Register(ctx context.Context, username, password string) error
	// Login exchanges credentials for an access token.
	Login(ctx context.Context, username, password string) (string, error)

	Query(ctx context.Context, question string) (*QueryEnvelope, error)

	Freshness(ctx context.Context) ([]FreshnessEntry, error)
	Schema(ctx context.Context) (Document, error)
	Semantic(ctx context.Context) (Document, error)
	SuggestSemantic(ctx context.Context, schema Document) (Document, error)
	// UpdateSemantic submits a semantic layer and reports the server's acknowledgement.
	UpdateSemantic(ctx context.Context, doc Document) (bool, error)
	// SaveSemantic asks the server to make the last accepted semantic layer durable.
	SaveSemantic(ctx context.Context) error
}

// TokenSource supplies the bearer credential for authorized calls.
type TokenSource interface {
	Get() (string, bool)
}

var _ API = (*HTTP)(nil)
