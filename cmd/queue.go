package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the local scan queue",
}

var queueStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue counters",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stats, err := provider.Stats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stats: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Pending: %d\nSynced:  %d\nFailed:  %d\n", stats.Pending, stats.Synced, stats.Failed)
		if stats.LastSyncedAt != nil {
			fmt.Printf("Last synced: %s\n", stats.LastSyncedAt.UTC().Format("2006-01-02T15:04:05Z"))
		}
	},
}

var queueListLimit int

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent scans",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		events, err := provider.ListEvents(ctx, queueListLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scans: %v\n", err)
			os.Exit(1)
		}

		if len(events) == 0 {
			fmt.Println("No scans recorded.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBADGE\tSCANNED AT\tSTATUS\tERROR")
		for _, e := range events {
			errText := ""
			if e.SyncError != nil {
				errText = *e.SyncError
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.BadgeID, e.ScannedAt, e.SyncStatus, errText)
		}
		w.Flush()
	},
}

var queueResetFailedCmd = &cobra.Command{
	Use:   "reset-failed",
	Short: "Re-queue failed scans",
	Long: `Flip failed scans back to pending so the next sync cycle retries them.
Failed scans are never retried automatically.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		reset, err := provider.ResetFailed(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resetting failed scans: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d scan(s) reset to pending.\n", reset)
	},
}

var queueClearConfirm bool

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every local scan",
	Long: `Delete all scans from the local queue. Station identity and meta keys
are kept. Requires --yes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !queueClearConfirm {
			fmt.Fprintln(os.Stderr, "Refusing to clear without --yes.")
			os.Exit(1)
		}

		ctx := context.Background()
		deleted, err := provider.ClearAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing queue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d scan(s) deleted.\n", deleted)
	},
}

func init() {
	queueListCmd.Flags().IntVar(&queueListLimit, "limit", 20, "maximum scans to list")
	queueClearCmd.Flags().BoolVar(&queueClearConfirm, "yes", false, "confirm deletion")

	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueStatusCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueResetFailedCmd)
	queueCmd.AddCommand(queueClearCmd)
}
