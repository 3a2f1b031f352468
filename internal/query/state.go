// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

// Phase is where the pipeline is in answering a question.
type Phase int

const (
	Idle Phase = iota
	Loading
	// Answered carries SQL and, usually, Results.
	Answered
	// Failed carries Err.
	Failed
	// Empty means the server answered with a response kind we do not know.
	Empty
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Answered:
		return "answered"
	case Failed:
		return "failed"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// SQL is the generated statement shown to the user.
type SQL struct {
	Query       string
	Explanation string
}

// Results is a tabular result. Every row has len(Columns) cells.
// Truncated is set when local execution stopped at the row limit.
type Results struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
}

// State is the result state after a submission. At most one of SQL and Err
// is set. LocalErr reports a failed local execution of SQL.
type State struct {
	Phase    Phase
	SQL      *SQL
	Results  *Results
	Err      string
	LocalErr string
}
