package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation with the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if a.sync == nil {
				return fmt.Errorf("API_BASE_URL is not set")
			}
			res := a.sync.SyncAll(ctx)
			if !res.Success {
				return fmt.Errorf("sync failed: %s", res.Error)
			}
			r := res.Report
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded=%d updated=%d downloaded=%d deferred=%d failed=%d\n",
				r.Uploaded, r.Updated, r.Downloaded, r.Deferred, r.Failed)
			return nil
		},
	}
}
