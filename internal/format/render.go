// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats accepted by Render.
const (
	Table    = "table"
	Markdown = "markdown"
	CSV      = "csv"
	JSON     = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{Table, Markdown, CSV, JSON}

// Valid reports whether name is an output format ("md" is accepted for markdown).
func Valid(name string) bool {
	switch strings.ToLower(name) {
	case Table, Markdown, "md", CSV, JSON, "":
		return true
	}
	return false
}

// Render writes a result set to w. Table and markdown use f for cells;
// csv and json keep raw values.
func (f *Formatter) Render(w io.Writer, format string, cols []string, rows [][]any) error {
	switch strings.ToLower(format) {
	case JSON:
		return renderJSON(w, cols, rows)
	case CSV:
		return f.renderWith(w, cols, rows, Raw, func(t table.Writer) string { return t.RenderCSV() })
	case Markdown, "md":
		return f.renderWith(w, cols, rows, f.Cell, func(t table.Writer) string { return t.RenderMarkdown() })
	case Table, "":
		if len(rows) == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		if err := f.renderWith(w, cols, rows, f.Cell, func(t table.Writer) string { return t.Render() }); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
		return err
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func (f *Formatter) renderWith(w io.Writer, cols []string, rows [][]any, cell func(any) string, render func(table.Writer) string) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = cell(v)
		}
		t.AppendRow(row)
	}

	_, err := fmt.Fprintln(w, render(t))
	return err
}

type jsonResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func renderJSON(w io.Writer, cols []string, rows [][]any) error {
	if cols == nil {
		cols = []string{}
	}
	if rows == nil {
		rows = [][]any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{Columns: cols, Rows: rows})
}
