// Package reconcile detects administrator-initiated cloud resets and
// propagates them to the local queue.
//
// The cloud bumps an opaque clear epoch whenever an administrator wipes the
// shared scan dataset. Each station remembers the last epoch it saw in the
// meta store and compares on every health tick; a mismatch means the local
// queue holds scans from before the wipe and must go too. Only the scan
// queue is cleared — station identity and every other meta key survive.
package reconcile

import (
	"context"
	"log/slog"

	"attendance-kiosk/internal/api"
	"attendance-kiosk/internal/storage"
)

type Reconciler struct {
	store  storage.Provider
	client *api.Client
	logger *slog.Logger
}

func New(store storage.Provider, client *api.Client) *Reconciler {
	return &Reconciler{
		store:  store,
		client: client,
		logger: slog.With("component", "reconcile"),
	}
}

// Tick runs one reconciliation pass against the given cloud epoch.
//
// Branches:
//   - cloud epoch empty: the cloud has never been reset, nothing to do.
//   - no local epoch: a new or re-provisioned station catching up. Adopt
//     the cloud epoch without clearing anything.
//   - epochs equal: nothing to do.
//   - epochs differ: an administrator wiped the cloud since we last looked.
//     Clear the local queue, then adopt the new epoch.
func (r *Reconciler) Tick(ctx context.Context, cloudEpoch string) error {
	if cloudEpoch == "" {
		return nil
	}

	local, present, err := r.store.GetMeta(ctx, storage.MetaKeyLastClearEpoch)
	if err != nil {
		return err
	}

	if !present || local == "" {
		r.logger.Info("Adopting clear epoch on first contact", "epoch", cloudEpoch)
		return r.store.SetMeta(ctx, storage.MetaKeyLastClearEpoch, cloudEpoch)
	}

	if local == cloudEpoch {
		return nil
	}

	deleted, err := r.store.ClearAll(ctx)
	if err != nil {
		return err
	}

	r.logger.Warn("Cloud reset detected, cleared local queue",
		"old_epoch", local,
		"new_epoch", cloudEpoch,
		"deleted", deleted,
	)

	return r.store.SetMeta(ctx, storage.MetaKeyLastClearEpoch, cloudEpoch)
}

// Check fetches the current cloud epoch and runs a tick. Used when the
// caller does not already hold a station status response.
func (r *Reconciler) Check(ctx context.Context) error {
	status, err := r.client.StationStatus(ctx)
	if err != nil {
		return err
	}
	return r.Tick(ctx, status.ClearEpoch)
}
