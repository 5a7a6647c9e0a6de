package api

// Wire types for the central attendance service. All timestamps are UTC in
// the canonical YYYY-MM-DDTHH:MM:SSZ form.

type BatchEventMeta struct {
	Matched bool  `json:"matched"`
	LocalID int64 `json:"local_id"`
}

type BatchEvent struct {
	IdempotencyKey string         `json:"idempotency_key"`
	BadgeID        string         `json:"badge_id"`
	StationName    string         `json:"station_name"`
	ScannedAt      string         `json:"scanned_at"`
	BusinessUnit   string         `json:"business_unit,omitempty"`
	Meta           BatchEventMeta `json:"meta"`
}

type BatchRequest struct {
	Events []BatchEvent `json:"events"`
}

type BatchResponse struct {
	Saved      int `json:"saved"`
	Duplicates int `json:"duplicates"`
}

type HeartbeatRequest struct {
	StationName    string `json:"station_name"`
	LastClearEpoch string `json:"last_clear_epoch"`
	LocalScanCount int64  `json:"local_scan_count"`
}

type StationInfo struct {
	StationName string `json:"station_name"`
	Status      string `json:"status"`
	SecondsAgo  int64  `json:"seconds_ago"`
}

type StationStatusResponse struct {
	Stations   []StationInfo `json:"stations"`
	ClearEpoch string        `json:"clear_epoch"`
}

type DashboardStationStats struct {
	Name     string `json:"name"`
	Scans    int64  `json:"scans"`
	Unique   int64  `json:"unique"`
	LastScan string `json:"last_scan"`
}

type DashboardStatsResponse struct {
	TotalScans   int64                   `json:"total_scans"`
	UniqueBadges int64                   `json:"unique_badges"`
	Stations     []DashboardStationStats `json:"stations"`
}

type ExportScan struct {
	BadgeID     string `json:"badge_id"`
	StationName string `json:"station_name"`
	ScannedAt   string `json:"scanned_at"`
	Matched     bool   `json:"matched"`
}

type ExportResponse struct {
	Scans []ExportScan `json:"scans"`
}

type ClearScansResponse struct {
	Deleted int64 `json:"deleted"`
}

type ClearStationResponse struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}
