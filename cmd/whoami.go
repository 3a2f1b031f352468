package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// whoamiCmd shows the signed-in account and the service it talks to.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command shows the account of the stored session and the service URL
in use. The account name comes from the local profile written at sign-in, so it
works offline; the service is pinged to show whether it is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if !c.Auth.Status().State.SignedIn() {
			printNotLoggedIn()
			return nil
		}

		account := "(unknown account)"
		if p, err := c.Profile(); err == nil && p.Account != "" {
			account = p.Account
		}
		pterm.Printf("👤 Current user: %s\n", account)
		pterm.Printf("   Service:      %s\n", c.Config.APIURL)

		banner, err := c.API.Ping(cmd.Context())
		if err != nil {
			pterm.Warning.Println("Service unreachable")
			printBackendError(c, "contacting the service", err)
			return nil
		}
		pterm.Printf("   Status:       %s\n", banner)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
