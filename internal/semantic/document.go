// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package semantic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"sqlcopilot/cli/internal/backend"
)

// Parse validates text as JSON and returns it compacted.
func Parse(text string) (backend.Document, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(strings.TrimSpace(text))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return backend.Document(buf.Bytes()), nil
}

// Pretty renders doc as indented JSON for editing. Invalid input is returned as is.
func Pretty(doc backend.Document) string {
	if len(doc) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return string(doc)
	}
	return buf.String()
}

type layer struct {
	Tables map[string]struct {
		Columns json.RawMessage `json:"columns"`
		Metrics json.RawMessage `json:"metrics"`
	} `json:"tables"`
}

// Describe renders a {tables:{name:{columns,metrics}}} document as an outline,
// one table per block in name order. Other shapes fall back to Pretty.
func Describe(doc backend.Document) string {
	var l layer
	if err := json.Unmarshal(doc, &l); err != nil || len(l.Tables) == 0 {
		return Pretty(doc)
	}

	names := make([]string, 0, len(l.Tables))
	for name := range l.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		t := l.Tables[name]
		b.WriteString(name)
		b.WriteByte('\n')
		fmt.Fprintf(&b, "  columns: %s\n", joinItems(t.Columns))
		fmt.Fprintf(&b, "  metrics: %s\n", joinItems(t.Metrics))
	}
	return strings.TrimRight(b.String(), "\n")
}

// joinItems lists the keys of an object in sorted order. Arrays list strings
// verbatim and objects by their "name" field.
func joinItems(raw json.RawMessage) string {
	var named map[string]json.RawMessage
	if json.Unmarshal(raw, &named) == nil {
		if len(named) == 0 {
			return "-"
		}
		keys := make([]string, 0, len(named))
		for k := range named {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil || len(items) == 0 {
		return "-"
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
			continue
		}
		var n struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(item, &n) == nil && n.Name != "" {
			out = append(out, n.Name)
			continue
		}
		out = append(out, string(item))
	}
	return strings.Join(out, ", ")
}
