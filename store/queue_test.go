package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var qNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestSyncQueuePerEntityFIFO(t *testing.T) {
	db := openTestDB(t)

	// Two mutations for booking A, one for booking B.
	if _, err := db.EnqueueSync("k1", EntityBooking, "SB1", OpCreate, []byte(`{}`), qNow); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}
	if _, err := db.EnqueueSync("k2", EntityBooking, "SB1", OpUpdate, []byte(`{}`), qNow); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}
	if _, err := db.EnqueueSync("k3", EntityBooking, "SB2", OpCreate, []byte(`{}`), qNow); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}

	due, err := db.ListDueSync(qNow, 50)
	if err != nil {
		t.Fatalf("ListDueSync: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("len(due) = %d, want 2 (one head per entity)", len(due))
	}
	if due[0].IdempotencyKey != "k1" || due[1].IdempotencyKey != "k3" {
		t.Errorf("due = [%s %s], want [k1 k3]", due[0].IdempotencyKey, due[1].IdempotencyKey)
	}

	// Delivering the head exposes the next item for that entity.
	if err := db.DeleteSync(due[0].ID); err != nil {
		t.Fatalf("DeleteSync: %v", err)
	}
	due, err = db.ListDueSync(qNow, 50)
	if err != nil {
		t.Fatalf("ListDueSync: %v", err)
	}
	keys := []string{due[0].IdempotencyKey, due[1].IdempotencyKey}
	if keys[0] != "k2" || keys[1] != "k3" {
		t.Errorf("due = %v, want [k2 k3]", keys)
	}
}

func TestSyncQueueBackoffHoldsEntireEntity(t *testing.T) {
	db := openTestDB(t)

	id1, _ := db.EnqueueSync("k1", EntityBooking, "SB1", OpCreate, []byte(`{}`), qNow)
	db.EnqueueSync("k2", EntityBooking, "SB1", OpUpdate, []byte(`{}`), qNow)

	// Head fails, backs off two minutes.
	if err := db.BumpSyncRetry(id1, qNow.Add(2*time.Minute), "connection refused"); err != nil {
		t.Fatalf("BumpSyncRetry: %v", err)
	}

	// Nothing is due: k2 must not jump ahead of its entity's head.
	due, err := db.ListDueSync(qNow.Add(time.Minute), 50)
	if err != nil {
		t.Fatalf("ListDueSync: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due = %+v, want none while head is backing off", due)
	}

	// After the backoff the head comes back first.
	due, _ = db.ListDueSync(qNow.Add(3*time.Minute), 50)
	if len(due) != 1 || due[0].IdempotencyKey != "k1" {
		t.Fatalf("due = %+v, want [k1]", due)
	}
	if due[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", due[0].Attempts)
	}
	if due[0].LastError != "connection refused" {
		t.Errorf("lastError = %q, want connection refused", due[0].LastError)
	}
}

func TestSyncQueueDeadLetterRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, _ := db.EnqueueSync("k1", EntityDeployment, "dep-1", OpUpdate, []byte(`{"x":1}`), qNow)
	if err := db.MoveSyncToDeadLetter(id, "gave up after 5 attempts"); err != nil {
		t.Fatalf("MoveSyncToDeadLetter: %v", err)
	}

	if n, _ := db.CountPendingSync(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	letters, err := db.ListDeadLetters(10)
	if err != nil {
		t.Fatalf("ListDeadLetters: %v", err)
	}
	if len(letters) != 1 {
		t.Fatalf("len(letters) = %d, want 1", len(letters))
	}
	if letters[0].LastError != "gave up after 5 attempts" {
		t.Errorf("lastError = %q", letters[0].LastError)
	}

	// Operator requeues it: back on the queue with a fresh budget.
	if err := db.RequeueDeadLetter(letters[0].ID, qNow.Add(time.Hour)); err != nil {
		t.Fatalf("RequeueDeadLetter: %v", err)
	}
	if n, _ := db.CountDeadLetters(); n != 0 {
		t.Errorf("dead letters = %d, want 0", n)
	}
	due, _ := db.ListDueSync(qNow.Add(time.Hour), 10)
	if len(due) != 1 || due[0].IdempotencyKey != "k1" || due[0].Attempts != 0 {
		t.Fatalf("due = %+v, want requeued k1 with zero attempts", due)
	}
}

func TestDropPendingForEntity(t *testing.T) {
	db := openTestDB(t)

	db.EnqueueSync("k1", EntityBooking, "SB1", OpUpdate, []byte(`{}`), qNow)
	db.EnqueueSync("k2", EntityBooking, "SB1", OpUpdate, []byte(`{}`), qNow)
	db.EnqueueSync("k3", EntityBooking, "SB2", OpUpdate, []byte(`{}`), qNow)

	n, err := db.DropPendingForEntity(EntityBooking, "SB1")
	if err != nil {
		t.Fatalf("DropPendingForEntity: %v", err)
	}
	if n != 2 {
		t.Errorf("dropped = %d, want 2", n)
	}

	due, _ := db.ListDueSync(qNow, 10)
	if len(due) != 1 || due[0].EntityID != "SB2" {
		t.Fatalf("due = %+v, want only SB2", due)
	}
}

func TestEnqueueSyncDuplicateKeyRejected(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.EnqueueSync("k1", EntityBooking, "SB1", OpCreate, []byte(`{}`), qNow); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}
	if _, err := db.EnqueueSync("k1", EntityBooking, "SB1", OpCreate, []byte(`{}`), qNow); err == nil {
		t.Error("duplicate idempotency key should be rejected")
	}
}
