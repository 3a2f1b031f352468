// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Profile is non-secret information about the signed-in account, kept in the
// state dir so whoami works without a server round trip.
type Profile struct {
	Account    string    `json:"account"`
	SignedInAt time.Time `json:"signed_in_at"`
}

func profilePath(dir string) string {
	return filepath.Join(dir, "profile.json")
}

// LoadProfile reads the profile; a missing file returns the zero Profile.
func LoadProfile(dir string) (Profile, error) {
	var p Profile
	data, err := os.ReadFile(profilePath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, err
	}
	err = json.Unmarshal(data, &p)
	return p, err
}

// SaveProfile writes the profile with 0600 permissions.
func SaveProfile(dir string, p Profile) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(profilePath(dir), b, 0o600)
}

// ClearProfile removes the profile. It is idempotent.
func ClearProfile(dir string) error {
	err := os.Remove(profilePath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
