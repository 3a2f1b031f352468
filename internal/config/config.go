// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads CLI configuration from config.yaml in the XDG config dir,
// SQLCOPILOT_* environment variables and bound command-line flags.
// Only non-secret settings are kept here; secrets go to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sqlcopilot/cli/internal/backend"
	"sqlcopilot/cli/internal/format"
	"sqlcopilot/cli/internal/logging"
	"sqlcopilot/cli/internal/xdg"
)

const (
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "SQLCOPILOT"
)

// Config keys.
const (
	KeyAPIURL          = "api_url"
	KeyRequestTimeout  = "request_timeout"
	KeyLogLevel        = "log_level"
	KeyOutput          = "output"
	KeyLocale          = "locale"
	KeyKeyringBackend  = "keyring.backend"
	KeyKeyringFileDir  = "keyring.file_dir"
	KeyLocalExec       = "local_exec.enabled"
	KeyLocalExecRowCap = "local_exec.row_limit"
)

// Defaults.
const (
	DefaultAPIURL   = "http://localhost:8000"
	DefaultTimeout  = 30 * time.Second
	DefaultRowLimit = 500
)

// Config holds non-sensitive CLI settings.
type Config struct {
	APIURL         string            `mapstructure:"api_url"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
	LogLevel       string            `mapstructure:"log_level"`
	Output         string            `mapstructure:"output"`
	Locale         string            `mapstructure:"locale"`
	Keyring        KeyringConfig     `mapstructure:"keyring"`
	LocalExec      LocalExecConfig   `mapstructure:"local_exec"`
	Endpoints      backend.Endpoints `mapstructure:"endpoints"`
}

// KeyringConfig selects where the session credential is stored.
type KeyringConfig struct {
	// Backend forces one keyring backend (e.g. "file"); empty picks the OS default.
	Backend string `mapstructure:"backend"`
	FileDir string `mapstructure:"file_dir"`
}

// LocalExecConfig controls running SQL-only answers against a local database.
type LocalExecConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	RowLimit int  `mapstructure:"row_limit"`
}

// NewViper returns a viper instance with defaults, environment binding and
// the config search path set. Callers may bind flags before Load.
func NewViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyRequestTimeout, DefaultTimeout)
	v.SetDefault(KeyLogLevel, logging.DefaultLevel)
	v.SetDefault(KeyOutput, format.Table)
	v.SetDefault(KeyLocale, format.DefaultLocale)
	v.SetDefault(KeyKeyringBackend, "")
	v.SetDefault(KeyKeyringFileDir, "")
	v.SetDefault(KeyLocalExec, true)
	v.SetDefault(KeyLocalExecRowCap, DefaultRowLimit)

	ep := backend.DefaultEndpoints()
	for key, val := range map[string]string{
		"health":           ep.Health,
		"register":         ep.Register,
		"login":            ep.Login,
		"query":            ep.Query,
		"freshness":        ep.Freshness,
		"schema":           ep.Schema,
		"semantic":         ep.Semantic,
		"semantic_suggest": ep.SemanticSuggest,
		"semantic_save":    ep.SemanticSave,
	} {
		v.SetDefault("endpoints."+key, val)
	}

	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	if dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config.yaml (a missing file is not an error) and decodes v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.normalize()
}

// Dir returns the directory config.yaml is read from.
func Dir() (string, error) {
	return xdg.ConfigDir()
}

// Path returns the full path of config.yaml in dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName+"."+fileType)
}

func (c *Config) normalize() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url %q must start with http:// or https://", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultTimeout
	}
	if !format.Valid(c.Output) {
		return fmt.Errorf("output %q is not one of %s", c.Output, strings.Join(format.Formats, ", "))
	}
	if c.LocalExec.RowLimit <= 0 {
		c.LocalExec.RowLimit = DefaultRowLimit
	}
	return nil
}
