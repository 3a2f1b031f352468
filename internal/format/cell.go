// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package format turns query results into text: locale-aware cells and
// table, markdown, csv or json output.
package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when no locale is configured or it does not parse.
const DefaultLocale = "en-US"

// Formatter renders single cells for display.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a Formatter for the BCP 47 locale tag.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{p: message.NewPrinter(tag)}
}

// Cell formats v: numbers with a fractional part get exactly two decimals,
// other numbers get digit grouping, strings are literal, nil is empty.
func (f *Formatter) Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return f.p.Sprintf("%d", i)
		}
		fl, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f.float(fl)
	case int:
		return f.p.Sprintf("%d", x)
	case int8:
		return f.p.Sprintf("%d", x)
	case int16:
		return f.p.Sprintf("%d", x)
	case int32:
		return f.p.Sprintf("%d", x)
	case int64:
		return f.p.Sprintf("%d", x)
	case uint:
		return f.p.Sprintf("%d", x)
	case uint8:
		return f.p.Sprintf("%d", x)
	case uint16:
		return f.p.Sprintf("%d", x)
	case uint32:
		return f.p.Sprintf("%d", x)
	case uint64:
		return f.p.Sprintf("%d", x)
	case float32:
		return f.float(float64(x))
	case float64:
		return f.float(x)
	default:
		return fmt.Sprint(v)
	}
}

func (f *Formatter) float(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v != math.Trunc(v) {
		return f.p.Sprintf("%.2f", v)
	}
	return f.p.Sprintf("%.0f", v)
}

// Raw formats v without locale decoration, for machine-readable output.
func Raw(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
