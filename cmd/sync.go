package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attendance-kiosk/internal/station"
	"attendance-kiosk/internal/syncer"
)

var (
	syncDrain    bool
	syncTestConn bool
	syncTestAuth bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload pending scans now",
	Long: `Run a sync cycle immediately. By default uploads a single batch;
--drain loops until the queue is empty or no progress is made.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		orch, err := buildOrchestrator(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if syncTestConn {
			if err := orch.TestConnection(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Connection test failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Connection OK.")
			return
		}

		if syncTestAuth {
			if err := orch.TestAuthentication(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Authentication test failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Authentication OK.")
			return
		}

		var out any
		if syncDrain {
			out, err = orch.DrainAll(ctx)
		} else {
			out, err = orch.SyncBatch(ctx)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
			os.Exit(1)
		}

		encoded, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(encoded))
	},
}

func buildOrchestrator(ctx context.Context) (*syncer.Orchestrator, error) {
	ident, err := station.Resolve(ctx, provider, cfg.StationName)
	if err != nil {
		return nil, err
	}

	uploader := syncer.NewUploader(provider, newCloudClient(), ident.Name, syncConfig(cfg))
	return syncer.NewOrchestrator(uploader, syncConfig(cfg)), nil
}

func init() {
	syncCmd.Flags().BoolVar(&syncDrain, "drain", false, "drain the whole queue")
	syncCmd.Flags().BoolVar(&syncTestConn, "test-connection", false, "probe service reachability and exit")
	syncCmd.Flags().BoolVar(&syncTestAuth, "test-auth", false, "validate API credentials and exit")
	rootCmd.AddCommand(syncCmd)
}
