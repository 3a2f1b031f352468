// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/semantic"
)

// schemaCmd prints the database schema document the service works from.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the database schema known to the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := requireSignedIn(c); err != nil {
			return err
		}

		var out semantic.Outcome
		err = withSpinner("Loading schema", func() error {
			var err error
			out, err = c.Semantic.LoadSchema(cmd.Context())
			return err
		})
		if err != nil {
			printBackendError(c, "loading the schema", err)
			return errReported
		}
		if out != semantic.Applied {
			pterm.Warning.Println("Session changed while loading the schema.")
			return errReported
		}
		fmt.Fprintln(cmd.OutOrStdout(), semantic.Pretty(c.Workspace.Schema()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
