// Package xdg resolves XDG Base Directory paths for sqlcopilot.
//
// Every directory is created with private permissions on first use and falls
// back to the conventional location under the user's home directory when the
// corresponding XDG variable is unset.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base.
const AppName = "sqlcopilot"

// ConfigDir returns $XDG_CONFIG_HOME/sqlcopilot (default ~/.config/sqlcopilot).
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns $XDG_STATE_HOME/sqlcopilot (default ~/.local/state/sqlcopilot).
// Shell history lives here.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

// DataDir returns $XDG_DATA_HOME/sqlcopilot (default ~/.local/share/sqlcopilot).
// The encrypted file keyring lives here when no native keychain is available.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", ".local", "share")
}

func resolve(envVar string, fallback ...string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
