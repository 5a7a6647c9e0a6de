package storage

import (
	"context"
	"strings"
	"testing"

	"attendance-kiosk/internal/config"
)

func newTestProvider(t *testing.T) Provider {
	t.Helper()

	provider := NewProvider(&config.Storage{
		SQLite: &config.SQLiteStorage{Path: ":memory:"},
	})
	if provider == nil {
		t.Fatal("failed to create test provider")
	}
	t.Cleanup(func() { provider.Close() })
	return provider
}

func TestEnqueue_NewScanIsPending(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	id, err := p.Enqueue(ctx, "B100", "Gate A", nil, "")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	events, err := p.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 pending event, got %d", len(events))
	}
	if events[0].SyncStatus != SyncPending {
		t.Errorf("expected status pending, got %s", events[0].SyncStatus)
	}
	if !strings.HasSuffix(events[0].ScannedAt, "Z") {
		t.Errorf("scanned_at not in canonical form: %q", events[0].ScannedAt)
	}
}

func TestEnqueue_StoresIdentity(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	ident := &Identity{FullName: "Ada Lovelace", BusinessUnit: "Engineering", Position: "Analyst"}
	if _, err := p.Enqueue(ctx, "B200", "Gate A", ident, ""); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	events, err := p.FetchPending(ctx, 1)
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if events[0].FullName == nil || *events[0].FullName != "Ada Lovelace" {
		t.Errorf("identity not stored: %+v", events[0])
	}
}

func TestFetchPending_FIFOAndLimit(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	for _, badge := range []string{"B1", "B2", "B3"} {
		if _, err := p.Enqueue(ctx, badge, "Gate A", nil, ""); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	events, err := p.FetchPending(ctx, 2)
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].BadgeID != "B1" || events[1].BadgeID != "B2" {
		t.Errorf("expected oldest-first order, got %s, %s", events[0].BadgeID, events[1].BadgeID)
	}
}

func TestMarkSynced_Idempotent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	id, _ := p.Enqueue(ctx, "B1", "Gate A", nil, "")

	if err := p.MarkSynced(ctx, []int64{id}); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}
	// Second call on the same ids, plus a nonexistent id, must be a no-op.
	if err := p.MarkSynced(ctx, []int64{id, 9999}); err != nil {
		t.Fatalf("second MarkSynced failed: %v", err)
	}

	stats, err := p.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Synced != 1 {
		t.Errorf("expected 1 synced, got %d", stats.Synced)
	}
	if stats.LastSyncedAt == nil {
		t.Error("expected LastSyncedAt to be set")
	}
}

func TestMarkFailed_TruncatesError(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	id, _ := p.Enqueue(ctx, "B1", "Gate A", nil, "")

	long := strings.Repeat("x", MaxSyncErrorLen*2)
	if err := p.MarkFailed(ctx, []int64{id}, long); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	events, err := p.ListEvents(ctx, 1)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if events[0].SyncError == nil {
		t.Fatal("expected sync_error to be set")
	}
	if len(*events[0].SyncError) != MaxSyncErrorLen {
		t.Errorf("expected error truncated to %d bytes, got %d", MaxSyncErrorLen, len(*events[0].SyncError))
	}
}

func TestMarkFailed_NeverDowngradesSynced(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	id, _ := p.Enqueue(ctx, "B1", "Gate A", nil, "")
	p.MarkSynced(ctx, []int64{id})

	if err := p.MarkFailed(ctx, []int64{id}, "late failure"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	stats, _ := p.Stats(ctx)
	if stats.Synced != 1 || stats.Failed != 0 {
		t.Errorf("synced event was downgraded: %+v", stats)
	}
}

func TestResetFailed_OnlyTouchesFailed(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	failedID, _ := p.Enqueue(ctx, "B1", "Gate A", nil, "")
	syncedID, _ := p.Enqueue(ctx, "B2", "Gate A", nil, "")
	p.MarkFailed(ctx, []int64{failedID}, "boom")
	p.MarkSynced(ctx, []int64{syncedID})

	reset, err := p.ResetFailed(ctx)
	if err != nil {
		t.Fatalf("ResetFailed failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset, got %d", reset)
	}

	stats, _ := p.Stats(ctx)
	if stats.Pending != 1 || stats.Failed != 0 || stats.Synced != 1 {
		t.Errorf("unexpected stats after reset: %+v", stats)
	}

	events, _ := p.FetchPending(ctx, 10)
	if events[0].SyncError != nil {
		t.Error("expected sync_error cleared on reset")
	}
}

func TestClearAll_PreservesMeta(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	p.Enqueue(ctx, "B1", "Gate A", nil, "")
	p.Enqueue(ctx, "B2", "Gate A", nil, "")
	p.SetMeta(ctx, MetaKeyStationName, "Gate A")
	p.SetMeta(ctx, MetaKeyLastClearEpoch, "E1")

	deleted, err := p.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	stats, _ := p.Stats(ctx)
	if stats.Pending+stats.Synced+stats.Failed != 0 {
		t.Errorf("queue not empty after clear: %+v", stats)
	}

	name, present, _ := p.GetMeta(ctx, MetaKeyStationName)
	if !present || name != "Gate A" {
		t.Errorf("station name lost on clear: %q present=%t", name, present)
	}
	epoch, present, _ := p.GetMeta(ctx, MetaKeyLastClearEpoch)
	if !present || epoch != "E1" {
		t.Errorf("clear epoch lost on clear: %q present=%t", epoch, present)
	}
}

func TestClearAll_EmptyQueueReturnsZero(t *testing.T) {
	p := newTestProvider(t)

	deleted, err := p.ClearAll(context.Background())
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deleted, got %d", deleted)
	}
}

func TestMeta_SetOverwrites(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, present, _ := p.GetMeta(ctx, "missing"); present {
		t.Error("expected absent key")
	}

	p.SetMeta(ctx, "k", "v1")
	p.SetMeta(ctx, "k", "v2")

	value, present, err := p.GetMeta(ctx, "k")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if !present || value != "v2" {
		t.Errorf("expected v2, got %q present=%t", value, present)
	}
}
