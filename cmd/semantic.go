// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlcopilot/cli/internal/app"
	"sqlcopilot/cli/internal/backend"
	"sqlcopilot/cli/internal/semantic"
	"sqlcopilot/cli/internal/session"
)

var (
	semanticJSON  bool
	semanticWrite string
	semanticFile  string
)

var semanticCmd = &cobra.Command{
	Use:   "semantic",
	Short: "Inspect and update the semantic layer",
	Long: `The semantic layer describes tables, columns and metrics so the service can
write better SQL. Use 'suggest' to get a draft generated from the schema,
'edit' to change it in $EDITOR and 'save' to submit a JSON file.`,
}

var semanticShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved semantic layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		doc := c.Workspace.Semantic()
		if doc == nil {
			pterm.Info.Println("No semantic layer saved yet. Try 'sqlcopilot semantic suggest'.")
			return nil
		}
		if semanticJSON {
			fmt.Fprintln(cmd.OutOrStdout(), semantic.Pretty(doc))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), semantic.Describe(doc))
		return nil
	},
}

var semanticSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate a semantic layer draft from the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		var out semantic.Outcome
		err = withSpinner("Generating suggestion", func() error {
			var err error
			out, err = c.Semantic.Suggest(cmd.Context())
			return err
		})
		if err != nil {
			printBackendError(c, "generating a suggestion", err)
			return errReported
		}
		if out == semantic.Skipped {
			pterm.Warning.Println("No schema is available to suggest from.")
			return errReported
		}
		text := semantic.Pretty(c.Workspace.Suggested())
		if semanticWrite != "" {
			if err := os.WriteFile(semanticWrite, []byte(text+"\n"), 0o644); err != nil {
				return err
			}
			pterm.Success.Printf("Suggestion written to %s\n", semanticWrite)
			pterm.Printf("   Review it, then run: sqlcopilot semantic save --file %s\n", semanticWrite)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var semanticEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the semantic layer in $EDITOR and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		path := semanticFile
		if path == "" {
			f, err := os.CreateTemp("", "sqlcopilot-semantic-*.json")
			if err != nil {
				return err
			}
			path = f.Name()
			defer os.Remove(path)
			seed := c.Workspace.Semantic()
			if seed == nil {
				seed = backend.Document(`{"tables":{}}`)
			}
			_, werr := f.WriteString(semantic.Pretty(seed) + "\n")
			cerr := f.Close()
			if err := errors.Join(werr, cerr); err != nil {
				return err
			}
		}
		if err := runEditor(cmd.Context(), path); err != nil {
			return err
		}
		return saveFile(cmd.Context(), c, path)
	},
}

var semanticSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Submit a semantic layer JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if semanticFile == "" {
			return errors.New("--file is required")
		}
		c, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		return saveFile(cmd.Context(), c, semanticFile)
	},
}

func init() {
	semanticShowCmd.Flags().BoolVar(&semanticJSON, "json", false, "Print the raw JSON document")
	semanticSuggestCmd.Flags().StringVarP(&semanticWrite, "write", "w", "", "Write the suggestion to a file instead of stdout")
	semanticEditCmd.Flags().StringVarP(&semanticFile, "file", "f", "", "Edit this file instead of the saved document")
	semanticSaveCmd.Flags().StringVarP(&semanticFile, "file", "f", "", "JSON file to submit")
	semanticCmd.AddCommand(semanticShowCmd, semanticSuggestCmd, semanticEditCmd, semanticSaveCmd)
	rootCmd.AddCommand(semanticCmd)
}

// openWorkspace builds a client and waits for the session workspace to load.
func openWorkspace(cmd *cobra.Command) (*app.Client, error) {
	c, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	if err := requireSignedIn(c); err != nil {
		c.Close()
		return nil, err
	}
	var rep session.Report
	_ = withSpinner("Loading workspace", func() error {
		if l := c.Start(cmd.Context()); l != nil {
			rep = l.Wait()
		}
		return nil
	})
	if rep.Schema == session.Failed || rep.Semantic == session.Failed {
		pterm.Warning.Println("Part of the workspace failed to load; run with -v for details.")
	}
	if !c.Auth.Status().State.SignedIn() {
		pterm.Error.Println(c.Auth.Status().Message)
		c.Close()
		return nil, errReported
	}
	return c, nil
}

// saveFile loads path as the working document and submits it.
func saveFile(ctx context.Context, c *app.Client, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.Semantic.Edit(string(data)); err != nil {
		if errors.Is(err, semantic.ErrInvalidDocument) {
			pterm.Error.Println(err.Error())
			pterm.Printf("   Fix %s and run: sqlcopilot semantic save --file %s\n", path, path)
			return errReported
		}
		return err
	}

	var out semantic.Outcome
	err = withSpinner("Saving semantic layer", func() error {
		var err error
		out, err = c.Semantic.Save(ctx)
		return err
	})
	switch {
	case errors.Is(err, semantic.ErrNotDurable):
		pterm.Warning.Println("Semantic layer updated, but the service could not persist it.")
		return errReported
	case errors.Is(err, semantic.ErrRejected):
		pterm.Error.Println("The service rejected the semantic layer.")
		return errReported
	case err != nil:
		printBackendError(c, "saving the semantic layer", err)
		return errReported
	case out != semantic.Applied:
		pterm.Warning.Println("Nothing was saved.")
		return errReported
	}
	pterm.Success.Println("Semantic layer saved")
	return nil
}

// runEditor opens path in $VISUAL or $EDITOR, defaulting to vi.
func runEditor(ctx context.Context, path string) error {
	editor := strings.TrimSpace(os.Getenv("VISUAL"))
	if editor == "" {
		editor = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	ed := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...)
	ed.Stdin, ed.Stdout, ed.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", parts[0], err)
	}
	return nil
}
