// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/backend"
)

// freshnessCmd lists when each table was last loaded.
var freshnessCmd = &cobra.Command{
	Use:   "freshness",
	Short: "Show when each table was last loaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := requireSignedIn(c); err != nil {
			return err
		}

		if err := withSpinner("Checking data freshness", func() error {
			return c.Bootstrap.RefreshFreshness(cmd.Context())
		}); err != nil {
			printBackendError(c, "checking data freshness", err)
			return errReported
		}
		entries, _ := c.Workspace.Freshness()
		return printFreshness(cmd.OutOrStdout(), c, entries)
	},
}

func init() {
	rootCmd.AddCommand(freshnessCmd)
}

func printFreshness(w io.Writer, c *app.Client, entries []backend.FreshnessEntry) error {
	if len(entries) == 0 {
		pterm.Info.Println("No tables reported.")
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.Table, orUnknown(e.TimestampColumn), orUnknown(e.LastLoaded)})
	}
	return c.Format.Render(w, outputFormat(c), []string{"table", "timestamp column", "last loaded"}, rows)
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "unknown"
	}
	return *s
}
