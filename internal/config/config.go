// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and persists the maskctl configuration. Credentials in
// the file are decoded straight into secret wrappers, so a loaded Config can be
// printed or logged without revealing them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/masking/core/security"
)

// DSN is a database connection string. It carries the database password.
type DSN = security.Secret[string, security.Redact[string]]

// APIKey is a connector API key; logs show its last four characters.
type APIKey = security.Secret[string, security.Suffix4[string]]

type Config struct {
	Database struct {
		Type string `mapstructure:"type" json:"type" yaml:"type"`
		DSN  DSN    `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	} `mapstructure:"database" json:"database" yaml:"database"`
	Log struct {
		Level string `mapstructure:"level" json:"level" yaml:"level"`
	} `mapstructure:"log" json:"log" yaml:"log"`
	// APIKeys maps a connector name to its key.
	APIKeys map[string]APIKey `mapstructure:"api_keys" json:"api_keys,omitempty" yaml:"api_keys,omitempty"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "masking.db",
		"log.level":     "info",
	}
}

// Validate checks the fields LoadConfig cannot check through decoding alone.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Database.DSN.IsZero() {
		return fmt.Errorf("database.dsn must be set")
	}
	return nil
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Masking")
		default: // Linux, macOS, etc.
			configDir = "/etc/masking"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "masking")
	}

	return filepath.Join(configDir, "masking.yaml"), nil
}

// LoadConfig reads defaults, masking.yaml, MASKING_* environment variables and
// the flags of cmd, in increasing order of precedence, into T. Configuration
// file paths are searched in the user config dir, the system config dir and
// the working directory; configFile, when set, replaces the search.
//
// Fields whose type implements encoding.TextUnmarshaler (the secret wrappers)
// are decoded through UnmarshalText.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("masking")
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("masking")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
		if f := cmd.Flags().Lookup("log-level"); f != nil {
			if err := v.BindPFlag("log.level", f); err != nil {
				return c, err
			}
		}
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&c, hook); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile writes c to the user (or system) configuration path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

// WriteConfigFileTo writes c as YAML to path with mode 0600. Secrets are
// written in the clear so the file can be loaded again; see MaskedYAML for a
// rendering that is safe to display.
func WriteConfigFileTo[T any](c *T, path string) error {
	raw, err := security.MarshalExposed(c)
	if err != nil {
		return err
	}
	data, err := yaml.JSONToYAML(raw)
	clear(raw)
	if err != nil {
		return err
	}
	defer clear(data)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	return os.WriteFile(path, data, 0o600)
}

// MaskedYAML renders c as YAML with every secret masked.
func MaskedYAML[T any](c *T) ([]byte, error) {
	return yaml.Marshal(c)
}
