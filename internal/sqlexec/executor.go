// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs generated SQL against a local PostgreSQL database over a
// pgx connection pool. Statements run in read-only transactions and results are
// normalized to strings, json.Number and nil so they render like server rows.
package sqlexec

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DefaultRowLimit caps the rows collected from one statement.
const DefaultRowLimit = 500

// Executor executes SQL statements using a connection pool.
type Executor struct {
	pool     *pgxpool.Pool
	rowLimit int
	log      *zap.Logger
}

// Open creates a pool for dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string, rowLimit int, log *zap.Logger) (*Executor, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	e := New(pool, rowLimit, log)
	if err := e.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return e, nil
}

// New creates an Executor from an existing pgx pool.
func New(pool *pgxpool.Pool, rowLimit int, log *zap.Logger) *Executor {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{pool: pool, rowLimit: rowLimit, log: log.Named("sqlexec")}
}

func (e *Executor) Close() { e.pool.Close() }

func (e *Executor) Ping(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Run executes sql in a read-only transaction and returns at most the row
// limit of normalized rows. truncated reports that more rows were available.
func (e *Executor) Run(ctx context.Context, sql string) (cols []string, out [][]any, truncated bool, err error) {
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, nil, false, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols = make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}

	out = [][]any{}
	for rows.Next() {
		if len(out) == e.rowLimit {
			e.log.Info("result truncated", zap.Int("row_limit", e.rowLimit))
			truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, false, err
		}
		for i, v := range vals {
			vals[i] = Normalize(v)
		}
		out = append(out, vals)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, false, err
	}
	return cols, out, truncated, nil
}

// Tables lists user tables as schema.table.
func (e *Executor) Tables(ctx context.Context) ([]string, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT table_schema || '.' || table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Normalize converts a pgx value to a string, json.Number, bool or nil.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, json.Number:
		return x
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return json.Number(fmt.Sprint(x))
	case float32:
		return json.Number(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case float64:
		return json.Number(strconv.FormatFloat(x, 'f', -1, 64))
	case [16]byte:
		return uuid.UUID(x).String()
	case []byte:
		if len(x) == 16 {
			return uuid.UUID(x).String()
		}
		return fmt.Sprintf("\\x%x", x)
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		b, err := x.MarshalJSON()
		if err != nil {
			return fmt.Sprint(x)
		}
		if s, err := strconv.Unquote(string(b)); err == nil {
			return s // NaN, Infinity
		}
		return json.Number(b)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
