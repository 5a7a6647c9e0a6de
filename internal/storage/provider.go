package storage

import (
	"context"
	"log/slog"

	"attendance-kiosk/internal/config"
)

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// Scan queue methods
	Enqueue(ctx context.Context, badgeID, stationName string, identity *Identity, scannedAt string) (int64, error)
	FetchPending(ctx context.Context, limit int) ([]ScanEvent, error)
	MarkSynced(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, ids []int64, cause string) error
	Stats(ctx context.Context) (QueueStats, error)
	ClearAll(ctx context.Context) (int64, error)
	ResetFailed(ctx context.Context) (int64, error)
	ListEvents(ctx context.Context, limit int) ([]ScanEvent, error)

	// Meta store methods
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider := NewSQLiteProvider(config)
		if provider == nil {
			return nil
		}
		if err := provider.runMigrations(); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
