// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", &buf)

	log.Debug("hidden")
	log.Info("shown", Secret("dsn", "postgres://u:p@h/db"))
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected info line in output:\n%s", out)
	}
	if strings.Contains(out, "u:p@") {
		t.Fatalf("secret not masked:\n%s", out)
	}
}

func TestNewFallsBackOnUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", &buf)

	log.Info("below default")
	log.Warn("at default")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "below default") || !strings.Contains(out, "at default") {
		t.Fatalf("unexpected output for fallback level:\n%s", out)
	}
}
