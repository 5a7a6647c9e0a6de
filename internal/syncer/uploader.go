// Package syncer is the offline-first upload engine: it drains the durable
// scan queue into the central service in bounded batches, with idempotent
// keys, exponential backoff for transient failures, and a strict rule that
// only known-permanent rejections may mark an event failed.
package syncer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"attendance-kiosk/internal/api"
	"attendance-kiosk/internal/storage"
)

// Config holds the retry and batching knobs, fixed at construction.
type Config struct {
	BatchSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	// Cap on batches per drain cycle. 0 means unlimited.
	MaxBatches int
}

// Result is the structured outcome of one sync operation. Callers branch on
// counts, never on exceptions. Pending is re-queried after the attempt so it
// reflects real progress.
type Result struct {
	Synced  int    `json:"synced"`
	Failed  int    `json:"failed"`
	Pending int64  `json:"pending"`
	Error   string `json:"error,omitempty"`
}

// Uploader moves one page of pending events per call and leaves the store
// reflecting the true outcome: never stuck, never silently losing data.
type Uploader struct {
	store   storage.Provider
	client  *api.Client
	station string
	cfg     Config
	logger  *slog.Logger

	// Swapped in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// NewUploader builds an uploader for one station. The station name is
// resolved once here; RefreshStation re-resolves it if the kiosk is renamed
// at runtime. Keys for already-stored events stay stable either way because
// they embed the stationName column, not the live value.
func NewUploader(store storage.Provider, client *api.Client, station string, cfg Config) *Uploader {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Uploader{
		store:   store,
		client:  client,
		station: station,
		cfg:     cfg,
		logger:  slog.With("component", "syncer"),
		sleep:   time.Sleep,
	}
}

// RefreshStation updates the cached station name for future enqueues.
func (u *Uploader) RefreshStation(name string) {
	u.station = name
}

// buildBatch converts a page of stored events into the wire payload.
func buildBatch(events []storage.ScanEvent) api.BatchRequest {
	batch := api.BatchRequest{Events: make([]api.BatchEvent, 0, len(events))}
	for _, e := range events {
		ev := api.BatchEvent{
			IdempotencyKey: IdempotencyKey(e.StationName, e.BadgeID, e.ID),
			BadgeID:        e.BadgeID,
			StationName:    e.StationName,
			ScannedAt:      NormalizeTimestamp(e.ScannedAt),
			Meta: api.BatchEventMeta{
				Matched: e.FullName != nil,
				LocalID: e.ID,
			},
		}
		if e.BusinessUnit != nil {
			ev.BusinessUnit = *e.BusinessUnit
		}
		batch.Events = append(batch.Events, ev)
	}
	return batch
}

// SyncBatch uploads one page of pending events. The returned error is
// non-nil only for local storage failures, which are fatal to the
// operation; every delivery outcome is expressed in the Result.
func (u *Uploader) SyncBatch(ctx context.Context) (Result, error) {
	var result Result

	events, err := u.store.FetchPending(ctx, u.cfg.BatchSize)
	if err != nil {
		return result, err
	}
	if len(events) == 0 {
		return result, nil
	}

	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	batch := buildBatch(events)

	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		resp, err := u.client.SubmitBatch(ctx, batch)
		out := classify(resp, err)

		switch out.class {
		case outcomeSuccess:
			saved, duplicates := decodeBatchResponse(resp)
			if err := u.store.MarkSynced(ctx, ids); err != nil {
				return result, err
			}
			result.Synced = saved + duplicates
			u.logger.Info("Batch synced", "events", len(events), "saved", saved, "duplicates", duplicates)
			return u.withPending(ctx, result)

		case outcomeAuth:
			// Do not mark failed and do not retry: events stay pending so
			// a future attempt with fixed credentials resumes them.
			result.Error = out.detail
			u.logger.Warn("Sync blocked by authentication", "events", len(events))
			return u.withPending(ctx, result)

		case outcomePermanent:
			if err := u.store.MarkFailed(ctx, ids, out.detail); err != nil {
				return result, err
			}
			result.Failed = len(events)
			result.Error = out.detail
			u.logger.Warn("Batch rejected permanently", "events", len(events), "detail", out.detail)
			return u.withPending(ctx, result)

		case outcomeRetryable:
			result.Error = out.detail
			if attempt < u.cfg.MaxAttempts {
				delay := u.cfg.BaseDelay * time.Duration(1<<(attempt-1))
				u.logger.Debug("Transient sync failure, backing off", "attempt", attempt, "delay", delay, "detail", out.detail)
				u.sleep(delay)
				continue
			}
			// Exhausted: the page stays pending. Not knowing whether a
			// request will ever succeed must not be confused with knowing
			// it never will.
			u.logger.Warn("Sync attempts exhausted, leaving batch pending", "events", len(events), "detail", out.detail)
			return u.withPending(ctx, result)
		}
	}

	return u.withPending(ctx, result)
}

// withPending re-queries the pending count so callers observe real progress
// rather than trusting the attempted batch size.
func (u *Uploader) withPending(ctx context.Context, result Result) (Result, error) {
	stats, err := u.store.Stats(ctx)
	if err != nil {
		return result, err
	}
	result.Pending = stats.Pending
	return result, nil
}

func decodeBatchResponse(resp *api.Response) (saved, duplicates int) {
	var body api.BatchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		// A 200 with an unreadable body still means the server committed.
		return 0, 0
	}
	return body.Saved, body.Duplicates
}
