// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(NewViper(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, c.APIURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "table", c.Output)
	assert.Equal(t, "en-US", c.Locale)
	assert.True(t, c.LocalExec.Enabled)
	assert.Equal(t, DefaultRowLimit, c.LocalExec.RowLimit)
	assert.Equal(t, "/query", c.Endpoints.Query)
	assert.Equal(t, "/semantic/suggest", c.Endpoints.SemanticSuggest)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `api_url: https://copilot.example.com/
request_timeout: 5s
output: csv
keyring:
  backend: file
  file_dir: /tmp/keys
local_exec:
  enabled: false
endpoints:
  query: /v2/query
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	c, err := Load(NewViper(dir))
	require.NoError(t, err)
	assert.Equal(t, "https://copilot.example.com", c.APIURL)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "csv", c.Output)
	assert.Equal(t, KeyringConfig{Backend: "file", FileDir: "/tmp/keys"}, c.Keyring)
	assert.False(t, c.LocalExec.Enabled)
	assert.Equal(t, "/v2/query", c.Endpoints.Query)
	assert.Equal(t, "/auth/login", c.Endpoints.Login)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SQLCOPILOT_API_URL", "http://10.0.0.5:9000")
	t.Setenv("SQLCOPILOT_LOCAL_EXEC_ROW_LIMIT", "25")

	c, err := Load(NewViper(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", c.APIURL)
	assert.Equal(t, 25, c.LocalExec.RowLimit)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SQLCOPILOT_API_URL", "localhost:8000")
	_, err := Load(NewViper(t.TempDir()))
	assert.Error(t, err)

	t.Setenv("SQLCOPILOT_API_URL", "")
	t.Setenv("SQLCOPILOT_OUTPUT", "xml")
	_, err = Load(NewViper(t.TempDir()))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "config.yaml"), Path("a"))
}
