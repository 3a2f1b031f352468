// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/dsn"
	"sqlcopilot/cli/internal/keychain"
	"sqlcopilot/cli/internal/sqlexec"
)

// dbinfoCmd shows the configured local database with the password hidden.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the local database used for execution",
	Long: `The dbinfo command displays the database configured with 'sqlcopilot connect',
without the password, and lists the tables visible to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		raw, err := c.Keys.LoadDBDSN()
		if errors.Is(err, keychain.ErrNotFound) || (err == nil && strings.TrimSpace(raw) == "") {
			pterm.Println("⚠️  No database connection configured")
			pterm.Println("   Please run: sqlcopilot connect")
			return nil
		}
		if err != nil {
			return err
		}
		info, err := dsn.Parse(raw)
		if err != nil {
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(info.Redacted())
		pterm.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		exec, err := sqlexec.Open(ctx, raw, c.Config.LocalExec.RowLimit, c.Log)
		if err != nil {
			pterm.Warning.Println("Database unreachable: " + err.Error())
			return nil
		}
		defer exec.Close()
		tables, err := exec.Tables(ctx)
		if err != nil {
			pterm.Warning.Println("Could not list tables: " + err.Error())
			return nil
		}
		items := make([]pterm.BulletListItem, 0, len(tables))
		for _, t := range tables {
			items = append(items, pterm.BulletListItem{Level: 0, Text: t})
		}
		pterm.Printf("%d tables\n", len(tables))
		_ = pterm.DefaultBulletList.WithItems(items).Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
