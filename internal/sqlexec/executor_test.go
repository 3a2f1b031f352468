// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	id := [16]byte{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "abc", "abc"},
		{"bool", true, true},
		{"int32", int32(1675), json.Number("1675")},
		{"int64", int64(-3), json.Number("-3")},
		{"float64", 45230.5, json.Number("45230.5")},
		{"uuid array", id, "123e4567-e89b-12d3-a456-426614174000"},
		{"uuid bytes", id[:], "123e4567-e89b-12d3-a456-426614174000"},
		{"bytea", []byte{0xde, 0xad}, `\xdead`},
		{"numeric", pgtype.Numeric{Int: big.NewInt(4523050), Exp: -2, Valid: true}, json.Number("45230.50")},
		{"null numeric", pgtype.Numeric{}, nil},
		{"date", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "2024-05-01"},
		{"timestamp", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), "2024-05-01 10:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNew_DefaultRowLimit(t *testing.T) {
	e := New(nil, 0, nil)
	assert.Equal(t, DefaultRowLimit, e.rowLimit)
}
