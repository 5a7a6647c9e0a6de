package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notifier receives the outcome of sync cycles that marked events failed.
// Implemented by the operator email notifier; nil disables it.
type Notifier interface {
	SyncFailures(failed int, detail string)
}

// Worker runs the sync cycle on a timer and on an idle-detection signal.
// The cycle never runs concurrently with itself: entry is guarded by a
// non-blocking lock and a tick that cannot acquire it simply skips. The
// enqueue path never touches this lock, so scanning a badge is never
// delayed by an in-flight sync.
type Worker struct {
	orch      *Orchestrator
	interval  time.Duration
	idleAfter time.Duration
	notifier  Notifier
	logger    *slog.Logger

	mu sync.Mutex // guards the sync cycle itself

	activityMu   sync.Mutex
	lastActivity time.Time
	idleSynced   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewWorker(orch *Orchestrator, interval, idleAfter time.Duration, notifier Notifier) *Worker {
	return &Worker{
		orch:      orch,
		interval:  interval,
		idleAfter: idleAfter,
		notifier:  notifier,
		logger:    slog.With("component", "sync-worker"),
		stop:      make(chan struct{}),
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("Sync worker started", "interval", w.interval, "idle_after", w.idleAfter)
}

func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
	w.logger.Info("Sync worker stopped")
}

// NotifyScan records scan activity for idle detection. Lock-free with
// respect to the sync cycle.
func (w *Worker) NotifyScan() {
	w.activityMu.Lock()
	w.lastActivity = time.Now()
	w.idleSynced = false
	w.activityMu.Unlock()
}

// SyncNow runs a single-page sync if no cycle is in flight. The second
// return is false when the worker was busy and the call was skipped.
func (w *Worker) SyncNow(ctx context.Context) (Result, bool, error) {
	if !w.mu.TryLock() {
		return Result{}, false, nil
	}
	defer w.mu.Unlock()

	result, err := w.orch.SyncBatch(ctx)
	w.report(result.Failed, result.Error)
	return result, true, err
}

func (w *Worker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Idle detection polls at a finer grain than the main interval.
	idleTicker := time.NewTicker(time.Second)
	defer idleTicker.Stop()
	if w.idleAfter <= 0 {
		idleTicker.Stop()
	}

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.tick()
		case <-idleTicker.C:
			if w.idleElapsed() {
				w.tick()
			}
		}
	}
}

// idleElapsed reports whether scans happened recently enough to have armed
// the idle trigger, and fires it at most once per quiet period.
func (w *Worker) idleElapsed() bool {
	w.activityMu.Lock()
	defer w.activityMu.Unlock()

	if w.lastActivity.IsZero() || w.idleSynced {
		return false
	}
	if time.Since(w.lastActivity) < w.idleAfter {
		return false
	}
	w.idleSynced = true
	return true
}

func (w *Worker) tick() {
	if !w.mu.TryLock() {
		w.logger.Debug("Sync already running, skipping tick")
		return
	}
	defer w.mu.Unlock()

	ctx := context.Background()
	result, err := w.orch.DrainAll(ctx)
	if err != nil {
		w.logger.Error("Sync cycle failed", "error", err)
		return
	}

	if result.Synced > 0 || result.Failed > 0 {
		w.logger.Info("Sync cycle finished",
			"synced", result.Synced,
			"failed", result.Failed,
			"pending", result.Pending,
			"batches", result.Batches,
		)
	}

	w.report(result.Failed, result.Error)
}

func (w *Worker) report(failed int, detail string) {
	if failed > 0 && w.notifier != nil {
		w.notifier.SyncFailures(failed, detail)
	}
}
