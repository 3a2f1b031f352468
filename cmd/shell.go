// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/auth"
	"sqlcopilot/cli/internal/format"
	"sqlcopilot/cli/internal/query"
	"sqlcopilot/cli/internal/semantic"
	"sqlcopilot/cli/internal/xdg"
)

// shell is one interactive session. Unlike the one-shot commands it keeps a
// single Client, so the workspace and the working semantic document live
// across commands.
type shell struct {
	cmd    *cobra.Command
	c      *app.Client
	rl     *readline.Instance
	out    io.Writer
	base   context.Context
	format string
}

var shellCmd = &cobra.Command{
	Use:     "shell",
	Aliases: []string{"repl"},
	Short:   "Open the interactive shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	var history string
	if dir, err := xdg.StateDir(); err == nil {
		history = filepath.Join(dir, "history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptFor(c),
		HistoryFile:     history,
		AutoComplete:    shellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sh := &shell{
		cmd:    cmd,
		c:      c,
		rl:     rl,
		out:    cmd.OutOrStdout(),
		base:   context.WithoutCancel(cmd.Context()),
		format: outputFormat(c),
	}
	c.Start(sh.base)
	enableLocalExec(sh.base, c)

	_, _ = fmt.Fprintln(sh.out, "SQL Copilot shell. Ask a question, or type .help for commands.")
	if !c.Auth.Status().State.SignedIn() {
		_, _ = fmt.Fprintln(sh.out, "You are signed out: use .login or .register first.")
	}
	_, _ = fmt.Fprintln(sh.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if sh.command(line) {
				break
			}
		} else {
			sh.ask(line)
		}
		rl.SetPrompt(promptFor(c))
	}
	return nil
}

func promptFor(c *app.Client) string {
	if c.Auth.Status().State.SignedIn() {
		return "sqlcopilot> "
	}
	return "sqlcopilot (signed out)> "
}

// op returns a context for one operation that Ctrl-C cancels without ending the shell.
func (sh *shell) op() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(sh.base, os.Interrupt)
}

func (sh *shell) ask(question string) {
	ctx, cancel := sh.op()
	defer cancel()
	st, err := submitQuestion(ctx, sh.c, question)
	if errors.Is(err, query.ErrInFlight) {
		pterm.Warning.Println("A question is already being answered.")
		return
	}
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	_ = printQueryState(sh.out, sh.c, st, sh.format)
	_, _ = fmt.Fprintln(sh.out)
}

// command runs a dot-command and reports whether the shell should exit.
func (sh *shell) command(line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	ctx, cancel := sh.op()
	defer cancel()

	switch strings.ToLower(name) {
	case ".quit", ".exit":
		return true
	case ".help":
		printShellHelp(sh.out)
	case ".login":
		sh.signIn(auth.ModeLogin, rest)
	case ".register":
		sh.signIn(auth.ModeRegister, rest)
	case ".logout":
		if err := sh.c.Auth.Logout(ctx); err != nil {
			pterm.Warning.Println("Could not remove the session credential: " + err.Error())
		}
		pterm.Success.Println("Logged out")
	case ".examples":
		printExamples()
	case ".format":
		sh.setFormat(rest)
	case ".freshness":
		sh.freshness(ctx, false)
	case ".refresh":
		sh.freshness(ctx, true)
	case ".schema":
		sh.schema(ctx)
	case ".semantic":
		sh.showSemantic()
	case ".suggest":
		sh.suggest(ctx)
	case ".draft":
		sh.draft()
	case ".edit":
		sh.edit(rest)
	case ".save":
		sh.save(ctx)
	default:
		_, _ = fmt.Fprintf(sh.cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", name)
	}
	return false
}

func (sh *shell) signIn(mode auth.Mode, user string) {
	if sh.c.Auth.Status().State.SignedIn() {
		pterm.Info.Println("Already logged in. Use .logout first.")
		return
	}
	if user == "" {
		sh.rl.SetPrompt("Username: ")
		line, err := sh.rl.Readline()
		if err != nil {
			return
		}
		user = strings.TrimSpace(line)
	}
	pass, err := sh.rl.ReadPassword("Password: ")
	if err != nil {
		return
	}
	ctx, cancel := sh.op()
	defer cancel()
	_ = signIn(ctx, sh.c, mode, user, string(pass))
}

func (sh *shell) setFormat(name string) {
	if name == "" {
		_, _ = fmt.Fprintf(sh.out, "Output format: %s (one of %s)\n", sh.format, strings.Join(format.Formats, ", "))
		return
	}
	if !format.Valid(name) {
		pterm.Error.Printf("Unknown format %q (one of %s)\n", name, strings.Join(format.Formats, ", "))
		return
	}
	sh.format = strings.ToLower(name)
}

func (sh *shell) signedIn() bool {
	if sh.c.Auth.Status().State.SignedIn() {
		return true
	}
	pterm.Warning.Println("Not logged in. Use .login first.")
	return false
}

func (sh *shell) freshness(ctx context.Context, refresh bool) {
	if !sh.signedIn() {
		return
	}
	if refresh {
		if err := withSpinner("Checking data freshness", func() error {
			return sh.c.Bootstrap.RefreshFreshness(ctx)
		}); err != nil {
			printBackendError(sh.c, "checking data freshness", err)
			return
		}
	}
	entries, loaded := sh.c.Workspace.Freshness()
	if !loaded {
		pterm.Info.Println("Freshness is still loading; try .refresh.")
		return
	}
	_ = printFreshness(sh.out, sh.c, entries)
}

func (sh *shell) schema(ctx context.Context) {
	if !sh.signedIn() {
		return
	}
	if sh.c.Workspace.Schema() == nil {
		if _, err := sh.c.Semantic.LoadSchema(ctx); err != nil {
			printBackendError(sh.c, "loading the schema", err)
			return
		}
	}
	if doc := sh.c.Workspace.Schema(); doc != nil {
		_, _ = fmt.Fprintln(sh.out, semantic.Pretty(doc))
	}
}

func (sh *shell) showSemantic() {
	if !sh.signedIn() {
		return
	}
	doc := sh.c.Workspace.Semantic()
	if doc == nil {
		pterm.Info.Println("No semantic layer saved yet. Try .suggest.")
		return
	}
	_, _ = fmt.Fprintln(sh.out, semantic.Describe(doc))
}

func (sh *shell) suggest(ctx context.Context) {
	if !sh.signedIn() {
		return
	}
	var out semantic.Outcome
	err := withSpinner("Generating suggestion", func() error {
		var err error
		out, err = sh.c.Semantic.Suggest(ctx)
		return err
	})
	if err != nil {
		printBackendError(sh.c, "generating a suggestion", err)
		return
	}
	if out == semantic.Skipped {
		pterm.Warning.Println("No schema is loaded yet; try .schema first.")
		return
	}
	sh.draft()
}

func (sh *shell) draft() {
	doc := sh.c.Workspace.Suggested()
	if doc == nil {
		pterm.Info.Println("No working draft. Use .suggest or .edit <json>.")
		return
	}
	_, _ = fmt.Fprintln(sh.out, semantic.Pretty(doc))
}

func (sh *shell) edit(text string) {
	if text == "" {
		_, _ = fmt.Fprintln(sh.cmd.ErrOrStderr(), "Usage: .edit <json>")
		return
	}
	if err := sh.c.Semantic.Edit(text); err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	pterm.Success.Println("Draft updated. Use .save to submit it.")
}

func (sh *shell) save(ctx context.Context) {
	if !sh.signedIn() {
		return
	}
	if sh.c.Workspace.Suggested() == nil {
		pterm.Info.Println("No working draft to save.")
		return
	}
	out, err := sh.c.Semantic.Save(ctx)
	switch {
	case errors.Is(err, semantic.ErrNotDurable):
		pterm.Warning.Println("Semantic layer updated, but the service could not persist it.")
	case errors.Is(err, semantic.ErrRejected):
		pterm.Error.Println("The service rejected the semantic layer.")
	case err != nil:
		printBackendError(sh.c, "saving the semantic layer", err)
	case out == semantic.Applied:
		pterm.Success.Println("Semantic layer saved")
	}
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .login [user]     Sign in
  .register [user]  Create an account and sign in
  .logout           Sign out and clear the workspace
  .freshness        Show when each table was last loaded
  .refresh          Re-check data freshness
  .schema           Show the database schema
  .semantic         Show the saved semantic layer
  .suggest          Generate a semantic layer draft from the schema
  .draft            Show the working draft
  .edit <json>      Replace the working draft
  .save             Submit the working draft
  .examples         List example questions
  .format [name]    Show or set the result format
  .help             Show this help message
  .quit / .exit     Exit the shell

Anything else is sent as a question.
`
	_, _ = fmt.Fprintln(w, help)
}

func shellCompleter() *readline.PrefixCompleter {
	formats := make([]readline.PrefixCompleterInterface, 0, len(format.Formats))
	for _, f := range format.Formats {
		formats = append(formats, readline.PcItem(f))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".login"),
		readline.PcItem(".register"),
		readline.PcItem(".logout"),
		readline.PcItem(".freshness"),
		readline.PcItem(".refresh"),
		readline.PcItem(".schema"),
		readline.PcItem(".semantic"),
		readline.PcItem(".suggest"),
		readline.PcItem(".draft"),
		readline.PcItem(".edit"),
		readline.PcItem(".save"),
		readline.PcItem(".examples"),
		readline.PcItem(".format", formats...),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}
