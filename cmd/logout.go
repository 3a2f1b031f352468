// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/app"
)

var logoutAll bool

// logoutCmd removes the session credential and clears everything loaded for it.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session credential",
	Long: `The logout command removes the session credential from the OS keychain and
clears the local profile. With --all every stored secret is removed, including
the saved database connection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := logout(cmd.Context(), c, logoutAll); err != nil {
			pterm.Warning.Println("Could not remove every stored secret: " + err.Error())
		}
		pterm.Success.Println("Logged out")
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Also remove the saved database connection")
	rootCmd.AddCommand(logoutCmd)
}

// logout ends the session. With all set the keychain is wiped as well.
func logout(ctx context.Context, c *app.Client, all bool) error {
	err := c.Auth.Logout(ctx)
	if all {
		if cerr := c.Keys.ClearAll(); cerr != nil {
			return cerr
		}
	}
	return err
}
