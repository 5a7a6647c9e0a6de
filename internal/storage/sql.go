package storage

import (
	"log/slog"

	"github.com/jmoiron/sqlx"
)

type SQLProvider struct {
	db *sqlx.DB

	driver string
	logger *slog.Logger
}

func NewSQLProvider(driverName string, dataSource string) *SQLProvider {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		slog.Error("Failed to open database", "driver", driverName, "error", err)
		return nil
	}

	// Single-writer discipline: every status transition and the queue wipe
	// share one serialization domain. Concurrent status reads are served
	// from the same connection and stay consistent.
	db.SetMaxOpenConns(1)

	logger := slog.With("component", "storage")

	return &SQLProvider{
		db:     db,
		driver: driverName,
		logger: logger,
	}
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
