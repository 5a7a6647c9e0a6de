package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"attendance-kiosk/internal/api"
)

// Diagnostic errors for the pre-flight checks. The CLI and the status
// surface render these directly.
var (
	ErrUnreachable     = errors.New("service unreachable")
	ErrTimeout         = errors.New("service timed out")
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrNoPermission    = errors.New("API key lacks permission")
	ErrUnexpectedReply = errors.New("unexpected service reply")
)

// DrainResult aggregates a whole drain cycle.
type DrainResult struct {
	Synced  int    `json:"synced"`
	Failed  int    `json:"failed"`
	Pending int64  `json:"pending"`
	Batches int    `json:"batches"`
	Error   string `json:"error,omitempty"`
}

// Orchestrator drives the uploader across however many pages are needed,
// and owns the connectivity pre-flight checks.
type Orchestrator struct {
	uploader *Uploader
	cfg      Config
	logger   *slog.Logger
}

func NewOrchestrator(uploader *Uploader, cfg Config) *Orchestrator {
	return &Orchestrator{
		uploader: uploader,
		cfg:      cfg,
		logger:   slog.With("component", "orchestrator"),
	}
}

// SyncBatch uploads a single page. Used for manual "sync now" triggers
// where bounded latency matters.
func (o *Orchestrator) SyncBatch(ctx context.Context) (Result, error) {
	return o.uploader.SyncBatch(ctx)
}

// DrainAll loops until the queue is empty, an iteration makes no progress,
// or the batch cap is hit. The no-progress stop keeps a stuck server from
// spinning the loop forever.
func (o *Orchestrator) DrainAll(ctx context.Context) (DrainResult, error) {
	var total DrainResult

	for {
		result, err := o.uploader.SyncBatch(ctx)
		if err != nil {
			return total, err
		}

		total.Batches++
		total.Synced += result.Synced
		total.Failed += result.Failed
		total.Pending = result.Pending
		if result.Error != "" {
			total.Error = result.Error
		}

		if result.Pending == 0 {
			break
		}
		if result.Synced == 0 && result.Failed == 0 {
			o.logger.Warn("Drain made no progress, stopping", "pending", result.Pending)
			break
		}
		if o.cfg.MaxBatches > 0 && total.Batches >= o.cfg.MaxBatches {
			o.logger.Info("Drain reached batch cap", "batches", total.Batches, "pending", result.Pending)
			break
		}
	}

	return total, nil
}

// TestConnection probes plain reachability of the service root with a short
// timeout. No authentication and no queue involvement.
func (o *Orchestrator) TestConnection(ctx context.Context) error {
	resp, err := o.uploader.client.Ping(ctx, 5*time.Second)
	if err != nil {
		switch {
		case isTimeout(err):
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		case isConnectionError(err):
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		default:
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnexpectedReply, resp.StatusCode)
	}
	return nil
}

// TestAuthentication validates credentials with an empty batch submission,
// which the server accepts without side effects.
func (o *Orchestrator) TestAuthentication(ctx context.Context) error {
	resp, err := o.uploader.client.SubmitBatch(ctx, emptyBatch())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case http.StatusForbidden:
		return ErrNoPermission
	default:
		return fmt.Errorf("%w: status %d", ErrUnexpectedReply, resp.StatusCode)
	}
}

func emptyBatch() api.BatchRequest {
	return api.BatchRequest{Events: []api.BatchEvent{}}
}
