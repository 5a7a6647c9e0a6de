package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Enqueue inserts one scan event in pending state and returns its local id.
// A storage failure here is fatal to the caller, not business-recoverable.
func (p *SQLProvider) Enqueue(ctx context.Context, badgeID, stationName string, identity *Identity, scannedAt string) (int64, error) {
	if scannedAt == "" {
		scannedAt = NowUTC()
	}

	event := ScanEvent{
		BadgeID:     badgeID,
		ScannedAt:   scannedAt,
		StationName: stationName,
		SyncStatus:  SyncPending,
	}
	if identity != nil {
		event.FullName = &identity.FullName
		event.BusinessUnit = &identity.BusinessUnit
		event.Position = &identity.Position
	}

	res, err := p.db.NamedExecContext(ctx, `
		INSERT INTO scan_events (badge_id, scanned_at, station_name, full_name, business_unit, position, sync_status)
		VALUES (:badge_id, :scanned_at, :station_name, :full_name, :business_unit, :position, :sync_status)`,
		event)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue scan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read scan id: %w", err)
	}

	p.logger.Debug("Enqueued scan", "id", id, "badge_id", badgeID)
	return id, nil
}

// FetchPending returns up to limit pending events, oldest first. FIFO order
// preserves the causal order of attendance data for reporting.
func (p *SQLProvider) FetchPending(ctx context.Context, limit int) ([]ScanEvent, error) {
	events := []ScanEvent{}
	err := p.db.SelectContext(ctx, &events, `
		SELECT * FROM scan_events
		WHERE sync_status = ?
		ORDER BY id ASC
		LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending scans: %w", err)
	}
	return events, nil
}

// MarkSynced transitions the given events to synced. Already-synced or
// nonexistent ids are silently ignored.
func (p *SQLProvider) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
		UPDATE scan_events
		SET sync_status = ?, synced_at = ?, sync_error = NULL
		WHERE id IN (?) AND sync_status != ?`,
		SyncSynced, time.Now().UTC(), ids, SyncSynced)
	if err != nil {
		return fmt.Errorf("failed to build mark synced query: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, p.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to mark scans synced: %w", err)
	}
	return nil
}

// MarkFailed transitions the given events to failed, recording the cause.
// Synced events are never downgraded; nonexistent ids are ignored.
func (p *SQLProvider) MarkFailed(ctx context.Context, ids []int64, cause string) error {
	if len(ids) == 0 {
		return nil
	}

	if len(cause) > MaxSyncErrorLen {
		cause = cause[:MaxSyncErrorLen]
	}

	query, args, err := sqlx.In(`
		UPDATE scan_events
		SET sync_status = ?, sync_error = ?
		WHERE id IN (?) AND sync_status != ?`,
		SyncFailed, cause, ids, SyncSynced)
	if err != nil {
		return fmt.Errorf("failed to build mark failed query: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, p.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to mark scans failed: %w", err)
	}
	return nil
}

// Stats returns the queue counters and the most recent sync time.
func (p *SQLProvider) Stats(ctx context.Context) (QueueStats, error) {
	var stats QueueStats

	row := struct {
		Pending int64 `db:"pending"`
		Synced  int64 `db:"synced"`
		Failed  int64 `db:"failed"`
	}{}

	err := p.db.GetContext(ctx, &row, `
		SELECT
			COUNT(CASE WHEN sync_status = 'pending' THEN 1 END) AS pending,
			COUNT(CASE WHEN sync_status = 'synced' THEN 1 END) AS synced,
			COUNT(CASE WHEN sync_status = 'failed' THEN 1 END) AS failed
		FROM scan_events`)
	if err != nil {
		return stats, fmt.Errorf("failed to read queue stats: %w", err)
	}

	stats.Pending = row.Pending
	stats.Synced = row.Synced
	stats.Failed = row.Failed

	var lastSynced time.Time
	err = p.db.GetContext(ctx, &lastSynced, `
		SELECT synced_at FROM scan_events
		WHERE sync_status = 'synced' AND synced_at IS NOT NULL
		ORDER BY synced_at DESC
		LIMIT 1`)
	if err == nil {
		stats.LastSyncedAt = &lastSynced
	} else if err != sql.ErrNoRows {
		return stats, fmt.Errorf("failed to read last synced time: %w", err)
	}

	return stats, nil
}

// ClearAll deletes every scan event. Station identity and the meta store are
// untouched; they anchor reconciliation across resets.
func (p *SQLProvider) ClearAll(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM scan_events`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear scan queue: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared scans: %w", err)
	}

	p.logger.Info("Cleared scan queue", "deleted", deleted)
	return deleted, nil
}

// ResetFailed flips failed events back to pending and clears their error.
// Failed events are never retried automatically; this is the operator's
// re-queue knob.
func (p *SQLProvider) ResetFailed(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE scan_events
		SET sync_status = ?, sync_error = NULL
		WHERE sync_status = ?`,
		SyncPending, SyncFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed scans: %w", err)
	}

	reset, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset scans: %w", err)
	}
	return reset, nil
}

// ListEvents returns the most recent events, newest first.
func (p *SQLProvider) ListEvents(ctx context.Context, limit int) ([]ScanEvent, error) {
	events := []ScanEvent{}
	err := p.db.SelectContext(ctx, &events, `
		SELECT * FROM scan_events
		ORDER BY id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return events, nil
}
