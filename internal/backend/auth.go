// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
	"strings"

	apperrors "sqlcopilot/cli/internal/errors"
)

// Ping calls GET / and returns the service banner. No authentication required.
func (h *HTTP) Ping(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := h.call(ctx, http.MethodGet, h.endpoints.Health, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Register calls POST /auth/register. Any 2xx is success.
func (h *HTTP) Register(ctx context.Context, username, password string) error {
	return h.call(ctx, http.MethodPost, h.endpoints.Register, credentials{Username: username, Password: password}, nil)
}

// Login calls POST /auth/login and returns the access token.
func (h *HTTP) Login(ctx context.Context, username, password string) (string, error) {
	var out tokenResponse
	if err := h.call(ctx, http.MethodPost, h.endpoints.Login, credentials{Username: username, Password: password}, &out); err != nil {
		return "", err
	}
	token := strings.TrimSpace(out.AccessToken)
	if token == "" {
		return "", apperrors.New(apperrors.Decode, "response has no access_token")
	}
	return token, nil
}
