package storage

import "time"

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Canonical timestamp layout for stored and transmitted scan times:
// UTC with an explicit Z suffix.
const TimeLayout = "2006-01-02T15:04:05Z"

// Upper bound for stored sync error text. Upstream errors can be verbose;
// anything longer is cut before it reaches the row.
const MaxSyncErrorLen = 500

// ScanEvent is one badge scan waiting for, or finished with, upload.
type ScanEvent struct {
	ID          int64  `db:"id"`
	BadgeID     string `db:"badge_id"`
	ScannedAt   string `db:"scanned_at"`
	StationName string `db:"station_name"`

	// Denormalized identity captured at scan time, not a live join.
	FullName     *string `db:"full_name"`
	BusinessUnit *string `db:"business_unit"`
	Position     *string `db:"position"`

	SyncStatus SyncStatus `db:"sync_status"`
	SyncedAt   *time.Time `db:"synced_at"`
	SyncError  *string    `db:"sync_error"`
}

// Identity holds the optional roster match recorded with a scan.
type Identity struct {
	FullName     string
	BusinessUnit string
	Position     string
}

// QueueStats is the read-only aggregate used by the status surface and the
// orchestrator progress checks.
type QueueStats struct {
	Pending      int64      `json:"pending"`
	Synced       int64      `json:"synced"`
	Failed       int64      `json:"failed"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Well-known meta store keys. The meta table survives queue wipes; it
// anchors reconciliation and station identity across restarts.
const (
	MetaKeyLastClearEpoch = "last_clear_epoch"
	MetaKeyStationName    = "station_name"
	MetaKeyStationID      = "station_id"
	MetaKeyAdminPIN       = "admin_pin"
)

// NowUTC returns the current time in the canonical stored form.
func NowUTC() string {
	return time.Now().UTC().Format(TimeLayout)
}
