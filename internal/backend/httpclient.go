// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "sqlcopilot/cli/internal/errors"
)

// DefaultTimeout bounds every request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a response we read.
const maxBody = 32 << 20

// Options configures an HTTP client.
type Options struct {
	// BaseURL is the base URL for all requests (e.g., "http://localhost:8000").
	BaseURL   string
	Endpoints Endpoints
	Timeout   time.Duration
	// Tokens supplies the bearer credential; nil means never authorized.
	Tokens TokenSource
	Logger *zap.Logger
	// Client overrides the underlying http.Client (tests).
	Client *http.Client
}

// HTTP implements API over REST endpoints.
type HTTP struct {
	baseURL   string
	endpoints Endpoints
	client    *http.Client
	tokens    TokenSource
	log       *zap.Logger
}

// New creates a backend client.
func New(opts Options) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		endpoints: opts.Endpoints.withDefaults(),
		client:    client,
		tokens:    opts.Tokens,
		log:       log.Named("backend"),
	}
}

// BaseURL returns the normalized base URL.
func (h *HTTP) BaseURL() string { return h.baseURL }

// StatusError records a non-2xx HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// do sends one request and returns the status and body. A 401 is always
// returned as an Unauthorized error; other statuses are left to the caller.
func (h *HTTP) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, apperrors.Wrap(apperrors.Decode, "encode request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return 0, nil, apperrors.Wrap(apperrors.Transport, "build request", err)
	}
	reqID := uuid.NewString()
	h.setStandardHeaders(req, reqID)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Debug("request failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return 0, nil, apperrors.Wrap(apperrors.Transport, method+" "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, apperrors.Wrap(apperrors.Transport, "read response", err)
	}
	h.log.Debug("request done",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.String("request_id", reqID),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, data, apperrors.Wrap(apperrors.Unauthorized, detailOf(data),
			&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))})
	}
	return resp.StatusCode, data, nil
}

// setStandardHeaders sets the JSON, correlation and auth headers.
func (h *HTTP) setStandardHeaders(req *http.Request, reqID string) {
	if req.Body != nil || req.Method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if h.tokens != nil {
		if token, ok := h.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// call performs a request expecting a 2xx JSON response decoded into out.
func (h *HTTP) call(ctx context.Context, method, path string, in, out any) error {
	status, data, err := h.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return apperrors.Wrap(apperrors.Server, detailOf(data),
			&StatusError{Code: status, Body: strings.TrimSpace(string(data))})
	}
	if out == nil {
		return nil
	}
	return decode(data, out)
}

// decode unmarshals data keeping numbers as json.Number.
func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return apperrors.Wrap(apperrors.Decode, "invalid response body", err)
	}
	return nil
}

// detailOf extracts a human-readable "detail" from an error body.
// Validation errors carry a list of {msg}; the first one is used.
func detailOf(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &body) != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(body.Detail, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(body.Detail, &list) == nil && len(list) > 0 {
		return strings.TrimSpace(list[0].Msg)
	}
	return ""
}
