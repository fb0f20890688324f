package syncq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetedge/config"
	"fleetedge/store"
)

var syncNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeSender records deliveries and fails on demand.
type fakeSender struct {
	mu        sync.Mutex
	delivered []string
	failWith  map[string]error
	delay     time.Duration
}

func (s *fakeSender) Deliver(_ context.Context, item store.SyncItem) (string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failWith[item.IdempotencyKey]; ok {
		return "", err
	}
	s.delivered = append(s.delivered, item.IdempotencyKey)
	return "", nil
}

func (s *fakeSender) deliveredKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.delivered...)
}

type fakeEmitter struct {
	mu           sync.Mutex
	delivered    []string
	deadLettered []string
}

func (e *fakeEmitter) EmitSyncDelivered(item store.SyncItem, serverRef string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delivered = append(e.delivered, item.IdempotencyKey)
}

func (e *fakeEmitter) EmitSyncDeadLettered(item store.SyncItem, lastError string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deadLettered = append(e.deadLettered, item.IdempotencyKey)
}

var errConnRefused = errors.New("connection refused")

func transientAlways(error) bool { return true }

func testReplayer(t *testing.T, db *store.DB, sender Sender, isTransient IsTransientFunc, nowRef *time.Time) (*Replayer, *fakeEmitter) {
	t.Helper()
	emitter := &fakeEmitter{}
	cfg := config.SyncConfig{
		BackoffBase: time.Second,
		BackoffCap:  60 * time.Second,
		MaxAttempts: 3,
		Concurrency: 2,
	}
	r := NewReplayer(db, sender, isTransient, cfg, emitter, func() time.Time { return *nowRef })
	return r, emitter
}

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(t.TempDir() + "/sync.db")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReplayDeliversQueuedMutation(t *testing.T) {
	db := openTestDB(t)
	now := syncNow
	sender := &fakeSender{}
	r, emitter := testReplayer(t, db, sender, transientAlways, &now)

	db.EnqueueSync("k1", store.EntityBooking, "SB1", store.OpCreate, []byte(`{}`), now)

	res := r.Replay()
	if res.Succeeded != 1 || res.Failed != 0 || res.DeadLettered != 0 {
		t.Fatalf("result = %+v, want one success", res)
	}
	if got := sender.deliveredKeys(); len(got) != 1 || got[0] != "k1" {
		t.Errorf("delivered = %v, want [k1]", got)
	}
	if n, _ := db.CountPendingSync(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if len(emitter.delivered) != 1 {
		t.Errorf("emitter.delivered = %v", emitter.delivered)
	}
}

func TestConcurrentReplayDeliversExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	now := syncNow
	sender := &fakeSender{delay: 50 * time.Millisecond}
	r, _ := testReplayer(t, db, sender, transientAlways, &now)

	db.EnqueueSync("k1", store.EntityBooking, "SB1", store.OpCreate, []byte(`{}`), now)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Replay()
		}()
	}
	wg.Wait()

	if got := sender.deliveredKeys(); len(got) != 1 {
		t.Fatalf("delivered = %v, want exactly one delivery", got)
	}
}

func TestTransientFailureBacksOffThenRetries(t *testing.T) {
	db := openTestDB(t)
	now := syncNow
	sender := &fakeSender{failWith: map[string]error{"k1": errConnRefused}}
	r, _ := testReplayer(t, db, sender, transientAlways, &now)

	db.EnqueueSync("k1", store.EntityBooking, "SB1", store.OpCreate, []byte(`{}`), now)

	res := r.Replay()
	if res.Failed != 1 {
		t.Fatalf("result = %+v, want one failure", res)
	}

	// Immediately replaying finds nothing due: the item is backing off.
	if res := r.Replay(); res.Succeeded+res.Failed+res.DeadLettered != 0 {
		t.Fatalf("result = %+v, want nothing attempted during backoff", res)
	}

	// Advance the injected clock past the backoff cap and heal the wire.
	sender.mu.Lock()
	delete(sender.failWith, "k1")
	sender.mu.Unlock()
	now = now.Add(2 * time.Minute)

	if res := r.Replay(); res.Succeeded != 1 {
		t.Fatalf("result = %+v, want success after backoff", res)
	}
}

func TestExhaustedRetriesDeadLetter(t *testing.T) {
	db := openTestDB(t)
	now := syncNow
	sender := &fakeSender{failWith: map[string]error{"k1": errConnRefused}}
	r, emitter := testReplayer(t, db, sender, transientAlways, &now)

	db.EnqueueSync("k1", store.EntityDeployment, "dep-1", store.OpUpdate, []byte(`{}`), now)

	// MaxAttempts = 3: two backoffs, then the third failure dead-letters.
	for i := 0; i < 3; i++ {
		r.Replay()
		now = now.Add(2 * time.Minute)
	}

	if n, _ := db.CountPendingSync(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if n, _ := db.CountDeadLetters(); n != 1 {
		t.Errorf("dead letters = %d, want 1", n)
	}
	if len(emitter.deadLettered) != 1 || emitter.deadLettered[0] != "k1" {
		t.Errorf("emitter.deadLettered = %v, want [k1]", emitter.deadLettered)
	}
}

func TestPermanentRejectionDeadLettersImmediately(t *testing.T) {
	db := openTestDB(t)
	now := syncNow
	sender := &fakeSender{failWith: map[string]error{"k1": errors.New("remote returned 400: bad payload")}}
	r, _ := testReplayer(t, db, sender, func(error) bool { return false }, &now)

	db.EnqueueSync("k1", store.EntityBooking, "SB1", store.OpCreate, []byte(`{}`), now)

	res := r.Replay()
	if res.DeadLettered != 1 {
		t.Fatalf("result = %+v, want immediate dead letter", res)
	}
	letters, _ := db.ListDeadLetters(10)
	if len(letters) != 1 || letters[0].Attempts != 0 {
		t.Fatalf("letters = %+v, want one with no retries burned", letters)
	}
}

func TestSameEntityMutationsReplayInOrder(t *testing.T) {
	db := openTestDB(t)
	now := syncNow
	sender := &fakeSender{}
	r, _ := testReplayer(t, db, sender, transientAlways, &now)

	db.EnqueueSync("k-create", store.EntityBooking, "SB1", store.OpCreate, []byte(`{}`), now)
	db.EnqueueSync("k-update", store.EntityBooking, "SB1", store.OpUpdate, []byte(`{}`), now)

	// One pass only touches the FIFO head; the update goes next pass.
	r.Replay()
	r.Replay()

	got := sender.deliveredKeys()
	if len(got) != 2 || got[0] != "k-create" || got[1] != "k-update" {
		t.Fatalf("delivered = %v, want [k-create k-update]", got)
	}
}

func TestBackoffBounds(t *testing.T) {
	base := time.Second
	ceiling := 60 * time.Second
	for attempts := 0; attempts < 10; attempts++ {
		for i := 0; i < 20; i++ {
			d := Backoff(base, ceiling, attempts)
			if d < base/2 {
				t.Fatalf("Backoff(attempts=%d) = %v, below base/2", attempts, d)
			}
			if d > ceiling {
				t.Fatalf("Backoff(attempts=%d) = %v, above cap", attempts, d)
			}
		}
	}

	// Exponential growth: by attempt 6 the floor (32s) clears attempt
	// zero's ceiling (1s) even with jitter.
	if d := Backoff(base, ceiling, 6); d < 16*time.Second {
		t.Errorf("Backoff(attempts=6) = %v, want >= 16s", d)
	}
}
