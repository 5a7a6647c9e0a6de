package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"attendance-kiosk/internal/config"
	"attendance-kiosk/internal/heartbeat"
	"attendance-kiosk/internal/notify"
	"attendance-kiosk/internal/reconcile"
	"attendance-kiosk/internal/roster"
	"attendance-kiosk/internal/routes"
	"attendance-kiosk/internal/station"
	"attendance-kiosk/internal/syncer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the kiosk: local API, background sync and heartbeat",
	Run: func(cmd *cobra.Command, args []string) {
		runMain(context.Background())
	},
}

func syncConfig(cfg *config.Config) syncer.Config {
	return syncer.Config{
		BatchSize:   cfg.Sync.BatchSize,
		MaxAttempts: cfg.Sync.MaxAttempts,
		BaseDelay:   cfg.Sync.BaseDelayDuration(),
		MaxBatches:  cfg.Sync.MaxBatches,
	}
}

func runMain(ctx context.Context) {
	ident, err := station.Resolve(ctx, provider, cfg.StationName)
	if err != nil {
		slog.Error("Station identity not available", "error", err)
		os.Exit(1)
	}
	slog.Info("Station resolved", "name", ident.Name)

	var r *roster.Roster
	if cfg.RosterFile != "" {
		r, err = roster.Load(cfg.RosterFile)
		if err != nil {
			// A broken roster only loses identity metadata; scans still queue.
			slog.Warn("Failed to load roster, continuing without", "error", err)
		}
	}

	client := newCloudClient()
	notifier := notify.New(cfg.Email, ident.Name)

	uploader := syncer.NewUploader(provider, client, ident.Name, syncConfig(cfg))
	orch := syncer.NewOrchestrator(uploader, syncConfig(cfg))

	var syncNotifier syncer.Notifier
	if notifier != nil {
		syncNotifier = notifier
	}
	worker := syncer.NewWorker(orch,
		time.Duration(cfg.Sync.Interval)*time.Second,
		time.Duration(cfg.Sync.IdleAfter)*time.Second,
		syncNotifier,
	)

	reconciler := reconcile.New(provider, client)
	reporter := heartbeat.NewReporter(provider, client, reconciler, ident.Name,
		time.Duration(cfg.Heartbeat.Interval)*time.Second)

	worker.Start()
	reporter.Start()
	defer worker.Stop()
	defer reporter.Stop()

	engine := gin.Default()
	routes.RegisterRoutes(engine, &routes.Deps{
		Cfg:     cfg,
		Store:   provider,
		Client:  client,
		Worker:  worker,
		Orch:    orch,
		Station: ident,
		Roster:  r,
	})

	srv := startHTTP(engine, cfg.Listen)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
