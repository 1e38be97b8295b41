package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/weekledger/internal/ledger"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired archived records once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			store := openStore(cfg)
			defer store.Close()

			l := ledger.New(store, ledger.WithRetention(cfg.RetentionWindow))
			n, err := l.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d archived records older than %s\n", n, cfg.RetentionWindow)
			return nil
		},
	}
}
