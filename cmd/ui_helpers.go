// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"io"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/auth"
	"sqlcopilot/cli/internal/config"
	apperrors "sqlcopilot/cli/internal/errors"
	"sqlcopilot/cli/internal/httperrors"
	"sqlcopilot/cli/internal/logging"
	"sqlcopilot/cli/internal/query"
	"sqlcopilot/cli/internal/terminal"
)

// withSpinner runs fn behind a spinner when stdout is a terminal.
// The spinner line is removed when fn returns.
func withSpinner(text string, fn func() error) error {
	if !terminal.IsInteractive() {
		return fn()
	}
	cursor.Hide()
	defer cursor.Show()
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return fn()
	}
	err = fn()
	_ = spinner.Stop()
	return err
}

// printQueryState shows the generated SQL, the explanation and the result table.
func printQueryState(w io.Writer, c *app.Client, st query.State, format string) error {
	switch st.Phase {
	case query.Failed:
		pterm.Error.Println(st.Err)
		return errReported
	case query.Empty:
		pterm.Info.Println("The service returned nothing to show for that question.")
		return nil
	case query.Answered:
	case query.Idle:
		// The answer was dropped because the session ended, e.g. it expired.
		if msg := c.Auth.Status().Message; msg != "" {
			pterm.Error.Println(msg)
			return errReported
		}
		return nil
	default:
		return nil
	}

	if st.SQL != nil {
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("SQL"))
		pterm.Println(pterm.NewStyle(pterm.FgCyan).Sprint(st.SQL.Query))
		pterm.Println()
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint(st.SQL.Explanation))
		pterm.Println()
	}
	if st.LocalErr != "" {
		pterm.Warning.Println("Local execution failed: " + st.LocalErr)
		return nil
	}
	if st.Results == nil {
		return nil
	}
	if err := c.Format.Render(w, format, st.Results.Columns, st.Results.Rows); err != nil {
		return err
	}
	if st.Results.Truncated {
		pterm.Warning.Printf("Showing the first %d rows; raise %s to see more.\n",
			len(st.Results.Rows), config.KeyLocalExecRowCap)
	}
	return nil
}

// printAuthFailure reports a failed sign-in attempt.
func printAuthFailure(st auth.Status) {
	msg := st.Message
	if msg == "" {
		msg = auth.LoginFailedMessage
	}
	pterm.Error.Println(msg)
}

// printBackendError shows err. Transport failures get a troubleshooting hint.
func printBackendError(c *app.Client, doing string, err error) {
	if apperrors.Is(err, apperrors.Transport) {
		httperrors.Print(httperrors.Explain(err, doing, httperrors.HostOf(c.Config.APIURL)))
		return
	}
	msg := apperrors.MessageOf(err)
	if msg == "" {
		msg = logging.PresentError("", err)
	}
	pterm.Error.Printf("%s failed: %s\n", doing, msg)
}

func printNotLoggedIn() {
	pterm.Println("🔒 You're not logged in yet!")
	pterm.Println("   Run 'sqlcopilot login' to get started.")
}

func printSecureStorageUnavailable() {
	pterm.Error.Println("Secure storage is not available on this system.")
	pterm.Println("   Set keyring.backend: file in config.yaml and export SQLCOPILOT_KEYRING_PASSWORD.")
}

// requireSignedIn prints a hint and returns errReported when c has no session.
func requireSignedIn(c *app.Client) error {
	if c.Auth.Status().State.SignedIn() {
		return nil
	}
	printNotLoggedIn()
	return errReported
}

// outputFormat returns the --output flag or the configured default.
func outputFormat(c *app.Client) string {
	if output != "" {
		return output
	}
	return c.Config.Output
}
