// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/auth"
	"sqlcopilot/cli/internal/terminal"
)

var (
	authUsername      string
	authPasswordStdin bool
)

// loginCmd signs in with a username and password and stores the session
// credential in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in to the SQL Copilot service",
	Long: `The login command exchanges a username and password for a session credential.
The credential is stored in the OS keychain and sent with every later request.

The password is read without echo. Use --password-stdin to pipe it in from a
script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, auth.ModeLogin)
	},
}

// registerCmd creates an account and signs in with it.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, auth.ModeRegister)
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "Account username")
		c.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "Read the password from stdin")
		rootCmd.AddCommand(c)
	}
}

func runAuth(cmd *cobra.Command, mode auth.Mode) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if st := c.Auth.Status(); st.State == auth.Authenticated {
		account := "this device"
		if p, _ := c.Profile(); p.Account != "" {
			account = p.Account
		}
		pterm.Printf("Already logged in as %s\n", account)
		return nil
	}

	user, pass, err := readCredentials(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return signIn(cmd.Context(), c, mode, user, pass)
}

// readCredentials prompts for whatever the flags did not supply.
func readCredentials(in io.Reader, w io.Writer) (string, string, error) {
	r := bufio.NewReader(in)
	user := strings.TrimSpace(authUsername)
	if user == "" {
		line, err := terminal.ReadLine(r, w, "Username: ")
		if err != nil {
			return "", "", err
		}
		user = line
	}
	if authPasswordStdin {
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", "", fmt.Errorf("reading password from stdin: %w", err)
		}
		return user, strings.TrimRight(line, "\r\n"), nil
	}
	pass, err := terminal.ReadPassword(w, "Password: ")
	if errors.Is(err, terminal.ErrNotInteractive) {
		return "", "", errors.New("no terminal for the password prompt; use --password-stdin")
	}
	return user, pass, err
}

// signIn submits the form and reports the outcome. It is shared with the shell.
func signIn(ctx context.Context, c *app.Client, mode auth.Mode, user, pass string) error {
	c.Auth.SetMode(mode)
	c.Auth.SetUsername(user)
	c.Auth.SetPassword(pass)

	var st auth.Status
	verb := "Signing in"
	if mode == auth.ModeRegister {
		verb = "Creating account"
	}
	err := withSpinner(verb, func() error {
		var err error
		st, err = c.Auth.Submit(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if st.State != auth.Authenticated {
		printAuthFailure(st)
		return errReported
	}

	pterm.Success.Printf("Logged in as %s\n", user)
	if rep, ok := c.WaitLoaded(); ok {
		c.Log.Debug("workspace loaded",
			zap.Stringer("freshness", rep.Freshness),
			zap.Stringer("schema", rep.Schema),
			zap.Stringer("semantic", rep.Semantic))
	}
	return nil
}
