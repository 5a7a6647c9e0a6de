package reconcile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendance-kiosk/internal/api"
	"attendance-kiosk/internal/config"
	"attendance-kiosk/internal/storage"
)

func newTestStore(t *testing.T) storage.Provider {
	t.Helper()
	store := storage.NewProvider(&config.Storage{
		SQLite: &config.SQLiteStorage{Path: ":memory:"},
	})
	if store == nil {
		t.Fatal("failed to create test store")
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func localEpoch(t *testing.T, store storage.Provider) (string, bool) {
	t.Helper()
	value, present, err := store.GetMeta(context.Background(), storage.MetaKeyLastClearEpoch)
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	return value, present
}

func TestTick_EmptyCloudEpochIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Enqueue(ctx, "B1", "Gate A", nil, "")

	r := New(store, nil)
	if err := r.Tick(ctx, ""); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if _, present := localEpoch(t, store); present {
		t.Error("no epoch should be adopted from an unset cloud epoch")
	}
	stats, _ := store.Stats(ctx)
	if stats.Pending != 1 {
		t.Errorf("queue must be untouched: %+v", stats)
	}
}

func TestTick_FirstContactAdoptsWithoutClearing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Enqueue(ctx, "B1", "Gate A", nil, "")

	r := New(store, nil)
	if err := r.Tick(ctx, "E1"); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	epoch, present := localEpoch(t, store)
	if !present || epoch != "E1" {
		t.Errorf("expected adopted epoch E1, got %q present=%t", epoch, present)
	}
	stats, _ := store.Stats(ctx)
	if stats.Pending != 1 {
		t.Errorf("first contact must not clear the queue: %+v", stats)
	}
}

func TestTick_MatchingEpochIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.SetMeta(ctx, storage.MetaKeyLastClearEpoch, "E1")
	store.Enqueue(ctx, "B1", "Gate A", nil, "")

	r := New(store, nil)
	if err := r.Tick(ctx, "E1"); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	stats, _ := store.Stats(ctx)
	if stats.Pending != 1 {
		t.Errorf("matching epoch must not clear the queue: %+v", stats)
	}
}

func TestTick_MismatchClearsQueueAndAdopts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.SetMeta(ctx, storage.MetaKeyLastClearEpoch, "E1")
	store.SetMeta(ctx, storage.MetaKeyStationName, "Gate A")
	store.Enqueue(ctx, "B1", "Gate A", nil, "")
	store.Enqueue(ctx, "B2", "Gate A", nil, "")

	r := New(store, nil)
	if err := r.Tick(ctx, "E2"); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	epoch, _ := localEpoch(t, store)
	if epoch != "E2" {
		t.Errorf("expected adopted epoch E2, got %q", epoch)
	}
	stats, _ := store.Stats(ctx)
	if stats.Pending+stats.Synced+stats.Failed != 0 {
		t.Errorf("queue should be cleared on epoch change: %+v", stats)
	}

	// Station identity is anchored in meta and must survive the wipe.
	name, present, _ := store.GetMeta(ctx, storage.MetaKeyStationName)
	if !present || name != "Gate A" {
		t.Errorf("station identity lost on reconciliation: %q present=%t", name, present)
	}
}

func TestTick_RepeatedMismatchIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.SetMeta(ctx, storage.MetaKeyLastClearEpoch, "E1")

	r := New(store, nil)
	if err := r.Tick(ctx, "E2"); err != nil {
		t.Fatalf("first Tick failed: %v", err)
	}
	if err := r.Tick(ctx, "E2"); err != nil {
		t.Fatalf("second Tick failed: %v", err)
	}

	epoch, _ := localEpoch(t, store)
	if epoch != "E2" {
		t.Errorf("expected stable epoch E2, got %q", epoch)
	}
}

func TestCheck_FetchesEpochFromService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/station/status" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"stations": [], "clear_epoch": "E7"}`))
	}))
	defer server.Close()

	store := newTestStore(t)
	client := api.NewClient(server.URL, "test-key", 5*time.Second)

	r := New(store, client)
	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	epoch, _ := localEpoch(t, store)
	if epoch != "E7" {
		t.Errorf("expected epoch E7 from service, got %q", epoch)
	}
}
