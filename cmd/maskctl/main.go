// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the maskctl command-line interface using the Cobra
// library. maskctl masks values with the built-in strategies, compares
// secrets in constant time, shows the loaded configuration and manages the
// merchant credential vault.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/masking/buildvars"
	"github.com/toeirei/masking/core/security"
	"github.com/toeirei/masking/internal/config"
	"github.com/toeirei/masking/internal/db"
	"github.com/toeirei/masking/internal/logging"
	"golang.org/x/term"
)

var version = "dev" // this will be set by the linker

// main is the entry point of the application.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

// app carries the state shared by the commands of one invocation.
type app struct {
	cfgFile string
	cfg     config.Config
	// openStore opens the credential vault; tests may replace it.
	openStore func(dbType string, dsn config.DSN) (db.Store, error)
}

func defaultOpenStore(dbType string, dsn config.DSN) (db.Store, error) {
	s, err := db.NewStoreFromDSN(dbType, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newRootCmd creates and configures a new root cobra command. Tests create
// fresh instances for isolation.
func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{openStore: defaultOpenStore})
}

func newRootCmdFor(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maskctl",
		Short: "maskctl masks, compares and stores payment secrets.",
		Long: `maskctl is the operator tool for the secret masking library.
It renders values through the masking strategies, compares secrets
in constant time, prints configuration with every credential masked
and manages the merchant connector credential vault.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	cmd.Version = buildvars.Describe(version)
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/masking/masking.yaml or ./masking.yaml)")
	cmd.PersistentFlags().String("log-level", "", `log level ("debug", "info", "warn", "error")`)

	cmd.AddCommand(newMaskCmd(a))
	cmd.AddCommand(newCompareCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVaultCmd(a))
	return cmd
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), &a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	db.SetDebug(strings.EqualFold(cfg.Log.Level, "debug"))
	logging.Debugf("config loaded (database type %s)", cfg.Database.Type)
	return nil
}

func (a *app) store() (db.Store, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := a.openStore(a.cfg.Database.Type, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return s, nil
}

// readSecret reads one secret value. On a terminal the input is not echoed;
// otherwise one line is read from the command's input.
func (a *app) readSecret(cmd *cobra.Command, prompt string) ([]byte, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", prompt, err)
		}
		return b, nil
	}
	line, err := readLine(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", prompt, err)
	}
	return line, nil
}

// readLine reads up to the next newline one byte at a time, so no read-ahead
// buffer keeps a copy of the secret. Outgrown buffers are wiped. A trailing
// "\r" is dropped.
func readLine(r io.Reader) ([]byte, error) {
	var b [1]byte
	defer func() { b[0] = 0 }()
	line := make([]byte, 0, 64)
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				break
			}
			if len(line) == cap(line) {
				grown := make([]byte, len(line), 2*cap(line))
				copy(grown, line)
				security.Wipe(line)
				line = grown
			}
			line = append(line, b[0])
		}
		if err == io.EOF && len(line) > 0 {
			break
		}
		if err != nil {
			security.Wipe(line)
			return nil, err
		}
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line[n-1] = 0
		line = line[:n-1]
	}
	return line, nil
}
