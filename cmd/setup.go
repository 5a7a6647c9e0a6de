package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attendance-kiosk/internal/station"
)

var setupPIN string

var setupCmd = &cobra.Command{
	Use:   "setup [station-name]",
	Short: "First-run station setup",
	Long: `Configure this installation: the station name recorded on every scan,
a signed station ID, and optionally an admin PIN for destructive local
API routes. Re-running overwrites the name and PIN but keeps the ID.
Existing scans keep the name they were created with.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ident, err := station.Setup(ctx, provider, cfg.Secret, args[0], setupPIN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Station '%s' configured.\n", ident.Name)
		fmt.Printf("Station ID: %s\n", ident.ID)
		if setupPIN != "" {
			fmt.Println("Admin PIN set.")
		}
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupPIN, "pin", "", "admin PIN for destructive local routes")
	rootCmd.AddCommand(setupCmd)
}
