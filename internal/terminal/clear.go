// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides prompts and line clearing for interactive input.
package terminal

import (
	"os"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

// Width returns the terminal width, or 80 when stdout is not a terminal.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// LinesFor returns how many lines textLength characters occupy at width,
// plus the line the cursor moved to after Enter.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		lines = 1
	}
	return lines + 1
}

// ClearPreviousLines erases a prompt and its answer, e.g. a pasted DSN.
func ClearPreviousLines(textLength int) {
	n := LinesFor(textLength, Width())
	cursor.ClearLine()
	cursor.ClearLinesUp(n - 1)
	cursor.StartOfLine()
}
