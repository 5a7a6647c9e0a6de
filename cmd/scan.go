package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attendance-kiosk/internal/roster"
	"attendance-kiosk/internal/station"
	"attendance-kiosk/internal/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan [badge-id]",
	Short: "Record a badge scan",
	Long:  `Enqueue one scan as if a badge had been read at the kiosk.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ident, err := station.Resolve(ctx, provider, cfg.StationName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var identity *storage.Identity
		if cfg.RosterFile != "" {
			if r, err := roster.Load(cfg.RosterFile); err == nil {
				if match, ok := r.Lookup(args[0]); ok {
					identity = &match
				}
			}
		}

		id, err := provider.Enqueue(ctx, args[0], ident.Name, identity, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recording scan: %v\n", err)
			os.Exit(1)
		}

		if identity != nil {
			fmt.Printf("Scan #%d recorded for %s (%s).\n", id, identity.FullName, args[0])
		} else {
			fmt.Printf("Scan #%d recorded for badge %s.\n", id, args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
