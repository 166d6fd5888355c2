// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/masking/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and persist the configuration",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with every secret masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []byte
			var err error
			switch format {
			case "json":
				out, err = json.MarshalIndent(a.cfg, "", "  ")
				out = append(out, '\n')
			case "yaml":
				out, err = config.MaskedYAML(&a.cfg)
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "json", "output format (json, yaml)")

	var output string
	var system bool
	save := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to a file (mode 0600)",
		Long: `Write the effective configuration, secrets included, so it can be
loaded again. Without --output the user configuration path is used;
--system selects the system-wide path instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				p, err := config.GetConfigPath(system)
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteConfigFileTo(&a.cfg, path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
			return nil
		},
	}
	save.Flags().StringVarP(&output, "output", "o", "", "destination file")
	save.Flags().BoolVar(&system, "system", false, "write the system-wide configuration")

	cmd.AddCommand(show, save)
	return cmd
}
