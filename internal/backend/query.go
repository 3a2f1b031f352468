// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
)

// Query calls POST /query. The envelope is decoded whatever the status, since
// the service reports failures in the body; only a 401 is returned as an error.
func (h *HTTP) Query(ctx context.Context, question string) (*QueryEnvelope, error) {
	_, data, err := h.do(ctx, http.MethodPost, h.endpoints.Query, map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	var env QueryEnvelope
	if err := decode(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
