package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"attendance-kiosk/internal/api"
	"attendance-kiosk/internal/config"
	"attendance-kiosk/internal/storage"
)

const testStation = "Gate A"

// fixture wires an in-memory queue to an httptest server and records the
// backoff sleeps instead of waiting them out.
type fixture struct {
	store    storage.Provider
	uploader *Uploader
	sleeps   []time.Duration
	requests []api.BatchRequest
}

func newFixture(t *testing.T, cfg Config, handler func(w http.ResponseWriter, attempt int)) *fixture {
	t.Helper()

	store := storage.NewProvider(&config.Storage{
		SQLite: &config.SQLiteStorage{Path: ":memory:"},
	})
	if store == nil {
		t.Fatal("failed to create test store")
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store}

	attempt := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var req api.BatchRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode batch request: %v", err)
			}
			f.requests = append(f.requests, req)
		}
		attempt++
		handler(w, attempt)
	}))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "test-key", 5*time.Second)
	f.uploader = NewUploader(store, client, testStation, cfg)
	f.uploader.sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

func (f *fixture) enqueue(t *testing.T, badges ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(badges))
	for _, badge := range badges {
		id, err := f.store.Enqueue(context.Background(), badge, testStation, nil, "")
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func (f *fixture) stats(t *testing.T) storage.QueueStats {
	t.Helper()
	stats, err := f.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	return stats
}

func respond(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestSyncBatch_EmptyQueueIsNoop(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 3, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		t.Error("no request expected for an empty queue")
	})

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Synced != 0 || result.Failed != 0 || result.Pending != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSyncBatch_SuccessMarksSynced(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 3, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusOK, `{"saved": 1, "duplicates": 1}`)
	})
	f.enqueue(t, "B1", "B2")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Synced != 2 {
		t.Errorf("expected 2 synced (saved + duplicates), got %d", result.Synced)
	}
	if result.Pending != 0 {
		t.Errorf("expected 0 pending, got %d", result.Pending)
	}

	stats := f.stats(t)
	if stats.Synced != 2 || stats.Pending != 0 {
		t.Errorf("store not updated: %+v", stats)
	}
	if len(f.sleeps) != 0 {
		t.Errorf("expected no backoff on success, slept %v", f.sleeps)
	}
}

func TestSyncBatch_PayloadCarriesIdempotencyKeys(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 1, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusOK, `{"saved": 1, "duplicates": 0}`)
	})
	ids := f.enqueue(t, "B1")

	if _, err := f.uploader.SyncBatch(context.Background()); err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}

	if len(f.requests) != 1 || len(f.requests[0].Events) != 1 {
		t.Fatalf("expected 1 request with 1 event, got %+v", f.requests)
	}
	ev := f.requests[0].Events[0]
	want := IdempotencyKey(testStation, "B1", ids[0])
	if ev.IdempotencyKey != want {
		t.Errorf("idempotency key = %q, want %q", ev.IdempotencyKey, want)
	}
	if ev.Meta.LocalID != ids[0] {
		t.Errorf("local id = %d, want %d", ev.Meta.LocalID, ids[0])
	}
	if !strings.HasSuffix(ev.ScannedAt, "Z") {
		t.Errorf("scanned_at not normalized: %q", ev.ScannedAt)
	}
}

func TestSyncBatch_AuthFailureLeavesPendingWithoutRetry(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 3, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusUnauthorized, `{"detail": "bad key"}`)
	})
	f.enqueue(t, "B1")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Error == "" {
		t.Error("expected an auth error in the result")
	}
	if result.Synced != 0 || result.Failed != 0 {
		t.Errorf("auth failure must not change event state: %+v", result)
	}
	if len(f.requests) != 1 {
		t.Errorf("expected exactly 1 attempt on 401, got %d", len(f.requests))
	}

	stats := f.stats(t)
	if stats.Pending != 1 || stats.Failed != 0 {
		t.Errorf("events left queue on auth failure: %+v", stats)
	}
}

func TestSyncBatch_PermanentRejectionMarksFailed(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 3, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusForbidden, `{"detail": "not allowed"}`)
	})
	f.enqueue(t, "B1", "B2")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Failed != 2 {
		t.Errorf("expected 2 failed, got %d", result.Failed)
	}
	if len(f.requests) != 1 {
		t.Errorf("expected no retries on permanent rejection, got %d attempts", len(f.requests))
	}

	stats := f.stats(t)
	if stats.Failed != 2 || stats.Pending != 0 {
		t.Errorf("store not updated: %+v", stats)
	}
}

func TestSyncBatch_TransientFailureExhaustsAndLeavesPending(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 3, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusInternalServerError, "boom")
	})
	f.enqueue(t, "B1")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Synced != 0 || result.Failed != 0 {
		t.Errorf("transient exhaustion must not mark events: %+v", result)
	}
	if result.Pending != 1 {
		t.Errorf("expected event left pending, got %d", result.Pending)
	}
	if result.Error == "" {
		t.Error("expected a transient error in the result")
	}

	if len(f.requests) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(f.requests))
	}
	// Doubling backoff between attempts, no sleep after the last one.
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(f.sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), f.sleeps)
	}
	for i, d := range want {
		if f.sleeps[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, f.sleeps[i], d)
		}
	}
}

func TestSyncBatch_RecoversAfterTransientFailure(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 3, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		if attempt == 1 {
			respond(w, http.StatusServiceUnavailable, "down")
			return
		}
		respond(w, http.StatusOK, `{"saved": 1, "duplicates": 0}`)
	})
	f.enqueue(t, "B1")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Synced != 1 {
		t.Errorf("expected 1 synced after recovery, got %d", result.Synced)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != time.Second {
		t.Errorf("expected one base-delay sleep, got %v", f.sleeps)
	}

	stats := f.stats(t)
	if stats.Synced != 1 || stats.Pending != 0 {
		t.Errorf("store not updated: %+v", stats)
	}
}

func TestSyncBatch_RateLimitIsRetryable(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 2, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		if attempt == 1 {
			respond(w, http.StatusTooManyRequests, "slow down")
			return
		}
		respond(w, http.StatusOK, `{"saved": 1, "duplicates": 0}`)
	})
	f.enqueue(t, "B1")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if result.Synced != 1 {
		t.Errorf("expected recovery after 429, got %+v", result)
	}
}

func TestSyncBatch_UnreadableSuccessBodyStillMarksSynced(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 10, MaxAttempts: 1, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusOK, "not json")
	})
	f.enqueue(t, "B1")

	if _, err := f.uploader.SyncBatch(context.Background()); err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}

	// A 200 means the server committed, whatever the body looks like.
	stats := f.stats(t)
	if stats.Synced != 1 {
		t.Errorf("expected event synced, got %+v", stats)
	}
}

func TestSyncBatch_RespectsBatchSize(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 2, MaxAttempts: 1, BaseDelay: time.Second}, func(w http.ResponseWriter, attempt int) {
		respond(w, http.StatusOK, `{"saved": 2, "duplicates": 0}`)
	})
	f.enqueue(t, "B1", "B2", "B3")

	result, err := f.uploader.SyncBatch(context.Background())
	if err != nil {
		t.Fatalf("SyncBatch failed: %v", err)
	}
	if len(f.requests[0].Events) != 2 {
		t.Errorf("expected batch of 2, got %d", len(f.requests[0].Events))
	}
	if result.Pending != 1 {
		t.Errorf("expected 1 still pending, got %d", result.Pending)
	}
}

func TestClassify_TransportErrors(t *testing.T) {
	timeout := context.DeadlineExceeded
	if out := classify(nil, timeout); out.class != outcomeRetryable {
		t.Errorf("timeout should be retryable, got class %d", out.class)
	}
}
