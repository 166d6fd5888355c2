// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/masking/core/security"
)

// strategies maps --strategy names to renderers over wipeable input.
var strategies = map[string]func(security.Bytes) string{
	"redact":  maskWith[security.Redact[security.Bytes]],
	"card":    maskWith[security.CardNumber[security.Bytes]],
	"email":   maskWith[security.Email[security.Bytes]],
	"suffix4": maskWith[security.Suffix4[security.Bytes]],
}

// maskWith renders v through S and wipes v.
func maskWith[S security.Strategy[security.Bytes]](v security.Bytes) string {
	var out string
	_ = security.WithSecret[S](v, func(s security.StrongSecret[security.Bytes, S]) error {
		out = s.MaskedString()
		return nil
	})
	return out
}

func newMaskCmd(a *app) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "mask [value]",
		Short: "Render a value through a masking strategy",
		Long: `Render a value through one of the masking strategies:
  redact   constant placeholder
  card     first six and last four digits of a card number
  email    domain of an e-mail address
  suffix4  last four characters of a key or token
Without an argument the value is read from the terminal without echo.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render, ok := strategies[strategy]
			if !ok {
				return fmt.Errorf("unknown strategy %q (want redact, card, email or suffix4)", strategy)
			}
			var v security.Bytes
			if len(args) == 1 {
				v = security.Bytes(args[0])
			} else {
				b, err := a.readSecret(cmd, "value")
				if err != nil {
					return err
				}
				v = security.Bytes(b)
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(v))
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "redact", "masking strategy (redact, card, email, suffix4)")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare two secrets in constant time",
		Long: `Read two values (from the terminal without echo, or one per line
from standard input) and report whether they are equal. The comparison
runs in constant time for values of equal length.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := a.readSecret(cmd, "first value")
			if err != nil {
				return err
			}
			defer security.Wipe(first)
			second, err := a.readSecret(cmd, "second value")
			if err != nil {
				return err
			}
			defer security.Wipe(second)

			if security.ConstantTimeEqual(first, second) {
				fmt.Fprintln(cmd.OutOrStdout(), "match")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no match")
			}
			return nil
		},
	}
}
