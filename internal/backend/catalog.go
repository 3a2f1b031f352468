// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	apperrors "sqlcopilot/cli/internal/errors"
)

// Freshness calls GET /freshness and returns the entries in server order.
func (h *HTTP) Freshness(ctx context.Context) ([]FreshnessEntry, error) {
	var out struct {
		Freshness []FreshnessEntry `json:"freshness"`
	}
	if err := h.call(ctx, http.MethodGet, h.endpoints.Freshness, nil, &out); err != nil {
		return nil, err
	}
	if out.Freshness == nil {
		out.Freshness = []FreshnessEntry{}
	}
	return out.Freshness, nil
}

// Schema calls GET /schema.
func (h *HTTP) Schema(ctx context.Context) (Document, error) {
	return h.document(ctx, h.endpoints.Schema)
}

// Semantic calls GET /semantic and returns the persisted semantic layer.
func (h *HTTP) Semantic(ctx context.Context) (Document, error) {
	return h.document(ctx, h.endpoints.Semantic)
}

// SuggestSemantic calls POST /semantic/suggest with the schema document
// and returns the "suggested" field.
func (h *HTTP) SuggestSemantic(ctx context.Context, schema Document) (Document, error) {
	var out struct {
		Suggested json.RawMessage `json:"suggested"`
	}
	if err := h.call(ctx, http.MethodPost, h.endpoints.SemanticSuggest, schema, &out); err != nil {
		return nil, err
	}
	if isNull(out.Suggested) {
		return nil, apperrors.New(apperrors.Decode, "response has no suggested document")
	}
	return Document(out.Suggested), nil
}

// UpdateSemantic calls POST /semantic with {semantic_layer} and returns "success".
// A missing flag reads as false.
func (h *HTTP) UpdateSemantic(ctx context.Context, doc Document) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	in := map[string]json.RawMessage{"semantic_layer": json.RawMessage(doc)}
	if err := h.call(ctx, http.MethodPost, h.endpoints.Semantic, in, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

// SaveSemantic calls POST /semantic/save. Any 2xx is an acknowledgement.
func (h *HTTP) SaveSemantic(ctx context.Context) error {
	return h.call(ctx, http.MethodPost, h.endpoints.SemanticSave, nil, nil)
}

func (h *HTTP) document(ctx context.Context, path string) (Document, error) {
	status, data, err := h.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, apperrors.Wrap(apperrors.Server, detailOf(data), &StatusError{Code: status, Body: string(bytes.TrimSpace(data))})
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, apperrors.New(apperrors.Decode, "response is not a JSON document")
	}
	return Document(data), nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
