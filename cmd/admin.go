package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Cloud-side administrative operations",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cloud dashboard aggregates",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stats, err := newCloudClient().DashboardStats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching stats: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Total scans:   %d\n", stats.TotalScans)
		fmt.Printf("Unique badges: %d\n", stats.UniqueBadges)

		if len(stats.Stations) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATION\tSCANS\tUNIQUE\tLAST SCAN")
			for _, s := range stats.Stations {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Name, s.Scans, s.Unique, s.LastScan)
			}
			w.Flush()
		}
	},
}

var adminExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every cloud-held scan as TSV",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		export, err := newCloudClient().Export(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BADGE\tSTATION\tSCANNED AT\tMATCHED")
		for _, s := range export.Scans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", s.BadgeID, s.StationName, s.ScannedAt, s.Matched)
		}
		w.Flush()
	},
}

var adminClearConfirm bool

var adminClearScansCmd = &cobra.Command{
	Use:   "clear-scans",
	Short: "Wipe the shared cloud dataset",
	Long: `Delete every scan the cloud holds. The cloud bumps its clear epoch and
every station wipes its local queue on the next reconciliation tick.
Requires --yes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !adminClearConfirm {
			fmt.Fprintln(os.Stderr, "Refusing to clear without --yes.")
			os.Exit(1)
		}

		ctx := context.Background()
		cleared, err := newCloudClient().ClearAllScans(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing cloud scans: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d cloud scan(s) deleted.\n", cleared.Deleted)
	},
}

var adminClearStationCmd = &cobra.Command{
	Use:   "clear-station [station-name]",
	Short: "Delete one station's cloud-held scans",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !adminClearConfirm {
			fmt.Fprintln(os.Stderr, "Refusing to clear without --yes.")
			os.Exit(1)
		}

		ctx := context.Background()
		cleared, err := newCloudClient().ClearStationScans(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing station scans: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d scan(s) deleted for station %s.\n", cleared.Deleted, args[0])
	},
}

var adminStationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Show the health of every station",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		status, err := newCloudClient().StationStatus(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching station status: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STATION\tSTATUS\tLAST CONTACT (s)")
		for _, s := range status.Stations {
			fmt.Fprintf(w, "%s\t%s\t%d\n", s.StationName, s.Status, s.SecondsAgo)
		}
		w.Flush()

		if status.ClearEpoch != "" {
			fmt.Printf("Clear epoch: %s\n", status.ClearEpoch)
		}
	},
}

func init() {
	adminClearScansCmd.Flags().BoolVar(&adminClearConfirm, "yes", false, "confirm deletion")
	adminClearStationCmd.Flags().BoolVar(&adminClearConfirm, "yes", false, "confirm deletion")

	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminExportCmd)
	adminCmd.AddCommand(adminClearScansCmd)
	adminCmd.AddCommand(adminClearStationCmd)
	adminCmd.AddCommand(adminStationsCmd)
}
