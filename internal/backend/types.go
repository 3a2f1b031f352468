// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import "encoding/json"

// Document is an opaque JSON document (schema or semantic layer).
type Document = json.RawMessage

// Response discriminants of a query result.
const (
	TypeQueryResult = "query_result"
	TypeError       = "error"
)

// QueryEnvelope is the body of POST /query.
type QueryEnvelope struct {
	Success  bool           `json:"success"`
	Response *QueryResponse `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// QueryResponse is a tagged union on Type.
// Row cells are strings or json.Number.
type QueryResponse struct {
	Type    string   `json:"type"`
	SQL     string   `json:"sql,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// FreshnessEntry describes when a table was last loaded.
// Nil fields are unknown to the server.
type FreshnessEntry struct {
	Table           string  `json:"table"`
	TimestampColumn *string `json:"timestamp_column"`
	LastLoaded      *string `json:"last_loaded"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
