// Package heartbeat periodically reports this station's identity, clear
// epoch and local backlog to the cloud. Reconciliation shares the same
// tick: the station status reply carries the cloud epoch anyway.
package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"attendance-kiosk/internal/api"
	"attendance-kiosk/internal/reconcile"
	"attendance-kiosk/internal/storage"
)

type Reporter struct {
	store      storage.Provider
	client     *api.Client
	reconciler *reconcile.Reconciler
	station    string
	interval   time.Duration
	logger     *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewReporter(store storage.Provider, client *api.Client, reconciler *reconcile.Reconciler, station string, interval time.Duration) *Reporter {
	return &Reporter{
		store:      store,
		client:     client,
		reconciler: reconciler,
		station:    station,
		interval:   interval,
		logger:     slog.With("component", "heartbeat"),
		stop:       make(chan struct{}),
	}
}

func (r *Reporter) Start() {
	r.wg.Add(1)
	go r.loop()
	r.logger.Info("Heartbeat reporter started", "interval", r.interval)
}

func (r *Reporter) Stop() {
	close(r.stop)
	r.wg.Wait()
	r.logger.Info("Heartbeat reporter stopped")
}

func (r *Reporter) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// First contact right away rather than a full interval later.
	r.Tick(context.Background())

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Tick(context.Background())
		}
	}
}

// Tick runs one reconciliation pass followed by one heartbeat. Both are
// fire-and-forget: failures are logged, never fatal, never retried inline.
// The next scheduled tick tries again.
func (r *Reporter) Tick(ctx context.Context) {
	status, err := r.client.StationStatus(ctx)
	if err != nil {
		r.logger.Warn("Station status query failed", "error", err)
	} else {
		if err := r.reconciler.Tick(ctx, status.ClearEpoch); err != nil {
			r.logger.Error("Reconciliation failed", "error", err)
		}
	}

	epoch, _, err := r.store.GetMeta(ctx, storage.MetaKeyLastClearEpoch)
	if err != nil {
		r.logger.Error("Failed to read clear epoch", "error", err)
		return
	}

	stats, err := r.store.Stats(ctx)
	if err != nil {
		r.logger.Error("Failed to read queue stats", "error", err)
		return
	}

	hb := api.HeartbeatRequest{
		StationName:    r.station,
		LastClearEpoch: epoch,
		LocalScanCount: stats.Pending,
	}
	if err := r.client.SendHeartbeat(ctx, hb); err != nil {
		r.logger.Warn("Heartbeat failed", "error", err)
	}
}
