// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/query"
)

// askCmd sends one question and prints the generated SQL with its results.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your data",
	Long: `The ask command sends a natural-language question to the service and prints
the generated SQL, a short explanation and the result rows.

When local_exec.enabled is set and a database was configured with
'sqlcopilot connect', SQL returned without rows is run read-only against
that database.

Run without a question to list example questions.`,
	Example: `  sqlcopilot ask "What is the total revenue by month?"
  sqlcopilot ask -o csv "Top 10 customers by order count"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			printExamples()
			return nil
		}

		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		enableLocalExec(cmd.Context(), c)

		st, err := submitQuestion(cmd.Context(), c, question)
		if err != nil {
			return err
		}
		return printQueryState(cmd.OutOrStdout(), c, st, outputFormat(c))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func submitQuestion(ctx context.Context, c *app.Client, question string) (query.State, error) {
	c.Query.SetQuestion(question)
	var st query.State
	err := withSpinner("Generating SQL", func() error {
		var err error
		st, err = c.Query.Submit(ctx, question)
		return err
	})
	return st, err
}

// enableLocalExec connects the local database when configured. Failures only warn.
func enableLocalExec(ctx context.Context, c *app.Client) {
	err := c.EnableLocalExec(ctx)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrNoDSN):
		c.Log.Debug("local execution disabled: no database configured")
	default:
		pterm.Warning.Println("Local database unavailable: " + err.Error())
	}
}

func printExamples() {
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("Try asking:"))
	items := make([]pterm.BulletListItem, 0, len(query.Examples()))
	for _, q := range query.Examples() {
		items = append(items, pterm.BulletListItem{Level: 0, Text: q})
	}
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}
