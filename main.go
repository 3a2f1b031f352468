// Package main is the entry point for the SQL Copilot CLI application.
// It lets a signed-in user ask data questions in natural language and inspect
// the generated SQL, its results, and the semantic layer behind them.
package main

import (
	"sqlcopilot/cli/cmd"
)

func main() {
	cmd.Execute()
}
