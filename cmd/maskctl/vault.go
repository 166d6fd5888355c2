// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/masking/core/security"
	"github.com/toeirei/masking/internal/db"
	"github.com/toeirei/masking/internal/logging"
	"github.com/toeirei/masking/internal/model"
)

func newVaultCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage merchant connector credentials",
		Long: `Manage the credential vault. Secret values are read from the terminal
without echo, or one per line from standard input, and are never
printed back.`,
	}

	var merchant, connector string
	addKeyFlags := func(c *cobra.Command) {
		c.Flags().StringVarP(&merchant, "merchant", "m", "", "merchant ID")
		c.Flags().StringVarP(&connector, "connector", "c", "", "connector name (e.g. stripe)")
		_ = c.MarkFlagRequired("merchant")
		_ = c.MarkFlagRequired("connector")
	}

	// withStore opens the vault for the duration of fn.
	withStore := func(fn func(s db.Store) error) error {
		s, err := a.store()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		return fn(s)
	}

	put := &cobra.Command{
		Use:   "put",
		Short: "Store a connector credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := a.readSecret(cmd, "API key")
			if err != nil {
				return err
			}
			webhook, err := a.readSecret(cmd, "webhook secret (empty for none)")
			if err != nil {
				security.Wipe(apiKey)
				return err
			}
			c := &model.Credential{
				MerchantID: merchant,
				Connector:  connector,
				APIKey:     security.NewWith[security.Suffix4[string]](string(apiKey)),
			}
			security.Wipe(apiKey)
			if len(webhook) > 0 {
				c.WebhookSecret = security.NewStrong(security.Bytes(webhook))
			}
			defer c.Zeroize()

			return withStore(func(s db.Store) error {
				if err := s.Put(cmd.Context(), c); err != nil {
					return fmt.Errorf("failed to store credential: %w", err)
				}
				logging.With("merchant", merchant, "connector", connector, "api_key", c.APIKey).Info("credential stored")
				fmt.Fprintf(cmd.OutOrStdout(), "stored credential %d for %s/%s (api key %s)\n", c.ID, merchant, connector, c.APIKey)
				return nil
			})
		},
	}
	addKeyFlags(put)

	get := &cobra.Command{
		Use:   "get",
		Short: "Show a connector credential with its secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s db.Store) error {
				c, err := s.Get(cmd.Context(), merchant, connector)
				if err != nil {
					return err
				}
				defer c.Zeroize()
				out, err := json.MarshalIndent(c, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
	addKeyFlags(get)

	var listMerchant string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s db.Store) error {
				cs, err := s.List(cmd.Context(), listMerchant)
				if err != nil {
					return err
				}
				defer cs.Zeroize()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tMERCHANT\tCONNECTOR\tAPI KEY\tWEBHOOK\tCREATED")
				for _, c := range cs {
					webhook := "-"
					if !c.WebhookSecret.Released() {
						webhook = c.WebhookSecret.MaskedString()
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.MerchantID, c.Connector, c.APIKey, webhook, c.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().StringVarP(&listMerchant, "merchant", "m", "", "only list this merchant's credentials")

	rotate := &cobra.Command{
		Use:   "rotate",
		Short: "Replace the API key of a stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.readSecret(cmd, "new API key")
			if err != nil {
				return err
			}
			key := security.NewWith[security.Suffix4[string]](string(b))
			security.Wipe(b)
			return withStore(func(s db.Store) error {
				if err := s.RotateAPIKey(cmd.Context(), merchant, connector, key); err != nil {
					return fmt.Errorf("failed to rotate api key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rotated api key for %s/%s (now %s)\n", merchant, connector, key)
				return nil
			})
		},
	}
	addKeyFlags(rotate)

	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s db.Store) error {
				if err := s.Delete(cmd.Context(), merchant, connector); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted credential for %s/%s\n", merchant, connector)
				return nil
			})
		},
	}
	addKeyFlags(del)

	verify := &cobra.Command{
		Use:   "verify-webhook",
		Short: "Check a webhook secret against the stored one in constant time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := a.readSecret(cmd, "webhook secret")
			if err != nil {
				return err
			}
			defer security.Wipe(candidate)
			return withStore(func(s db.Store) error {
				ok, err := s.VerifyWebhookSecret(cmd.Context(), merchant, connector, candidate)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintln(cmd.OutOrStdout(), "valid")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				}
				return nil
			})
		},
	}
	addKeyFlags(verify)

	maintain := &cobra.Command{
		Use:   "maintain",
		Short: "Run database housekeeping on the vault",
		Long: `Run engine-specific housekeeping: PRAGMA optimize, VACUUM and an
integrity check on SQLite, VACUUM ANALYZE on PostgreSQL and OPTIMIZE
TABLE on MySQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s db.Store) error {
				if err := s.Maintain(cmd.Context()); err != nil {
					return fmt.Errorf("vault maintenance failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "vault maintenance complete")
				return nil
			})
		},
	}

	cmd.AddCommand(put, get, list, rotate, del, verify, maintain)
	return cmd
}
