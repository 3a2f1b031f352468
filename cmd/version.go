// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version and the service banner",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "sqlcopilot %s\n", Version)

		c, err := newClient(cmd)
		if err != nil {
			return nil
		}
		defer c.Close()
		banner, err := c.API.Ping(cmd.Context())
		if err != nil {
			banner = "unreachable"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "service %s (%s)\n", banner, c.Config.APIURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
