// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for SQL Copilot.
// Every subcommand builds one app.Client from config.yaml, SQLCOPILOT_*
// environment variables and flags, then drives the session through it.
// Running sqlcopilot with no subcommand opens the interactive shell.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/config"
	"sqlcopilot/cli/internal/keychain"
	"sqlcopilot/cli/internal/logging"
	"sqlcopilot/cli/internal/xdg"
)

var (
	apiURL  string
	output  string
	verbose bool
)

// errReported marks a failure that was already shown to the user.
var errReported = errors.New("reported")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sqlcopilot",
	Short: "Ask questions about your data in plain English",
	Long: `SQL Copilot turns natural-language questions into SQL through the SQL Copilot
service, shows the generated query with its results, and manages the semantic
layer that describes your tables.

Run without a subcommand to open the interactive shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd)
	},
}

// Execute runs the CLI application. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, logging.PresentError("", err))
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiURL, "api-url", "", "SQL Copilot service URL (overrides api_url)")
	flags.StringVarP(&output, "output", "o", "", "Result format: table, markdown, csv or json")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
}

// loadConfig reads config.yaml and the environment, with flags taking precedence.
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	dir, err := config.Dir()
	if err != nil {
		return config.Config{}, err
	}
	v := config.NewViper(dir)
	if f := flags.Lookup("api-url"); f != nil {
		_ = v.BindPFlag(config.KeyAPIURL, f)
	}
	if f := flags.Lookup("output"); f != nil {
		_ = v.BindPFlag(config.KeyOutput, f)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return cfg, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newClient builds the session client for one command run.
func newClient(cmd *cobra.Command) (*app.Client, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	fileDir := cfg.Keyring.FileDir
	if fileDir == "" {
		if fileDir, err = xdg.DataDir(); err != nil {
			return nil, err
		}
	}
	keys, err := keychain.Open(keychain.Options{
		Backend:      cfg.Keyring.Backend,
		FileDir:      fileDir,
		FilePassword: os.Getenv("SQLCOPILOT_KEYRING_PASSWORD"),
	})
	if err != nil {
		printSecureStorageUnavailable()
		return nil, errReported
	}

	stateDir, err := xdg.StateDir()
	if err != nil {
		log.Warn("no state dir; profile disabled", zap.Error(err))
		stateDir = ""
	}
	return app.New(app.Options{Config: cfg, Keys: keys, Logger: log, StateDir: stateDir}), nil
}
