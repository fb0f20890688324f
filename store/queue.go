package store

import (
	"fmt"
	"time"
)

// Sync operations
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Sync entity types
const (
	EntityBooking    = "booking"
	EntityDeployment = "deployment"
)

// SyncItem is a queued mutation awaiting delivery to the remote
// authority.
type SyncItem struct {
	ID             int64     `json:"id"`
	IdempotencyKey string    `json:"idempotencyKey"`
	EntityType     string    `json:"entityType"`
	EntityID       string    `json:"entityId"`
	Op             string    `json:"op"`
	Payload        []byte    `json:"payload"`
	Attempts       int       `json:"attempts"`
	NextAttemptAt  time.Time `json:"nextAttemptAt"`
	LastError      string    `json:"lastError,omitempty"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
}

// DeadLetter is a mutation that exhausted its retries and needs an
// operator to drain it.
type DeadLetter struct {
	ID             int64     `json:"id"`
	IdempotencyKey string    `json:"idempotencyKey"`
	EntityType     string    `json:"entityType"`
	EntityID       string    `json:"entityId"`
	Op             string    `json:"op"`
	Payload        []byte    `json:"payload"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"lastError"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
	FailedAt       time.Time `json:"failedAt"`
}

const syncItemCols = `id, idempotency_key, entity_type, entity_id, op, payload, attempts, next_attempt_at, last_error, enqueued_at`

func scanSyncItem(row interface{ Scan(...interface{}) error }) (*SyncItem, error) {
	it := &SyncItem{}
	var nextAt, enqueuedAt string
	err := row.Scan(&it.ID, &it.IdempotencyKey, &it.EntityType, &it.EntityID, &it.Op,
		&it.Payload, &it.Attempts, &nextAt, &it.LastError, &enqueuedAt)
	if err != nil {
		return nil, err
	}
	it.NextAttemptAt = scanTime(nextAt)
	it.EnqueuedAt = scanTime(enqueuedAt)
	return it, nil
}

// EnqueueSync appends a mutation to the sync queue.
func (db *DB) EnqueueSync(key, entityType, entityID, op string, payload []byte, now time.Time) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO sync_queue (idempotency_key, entity_type, entity_id, op, payload, next_attempt_at, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key, entityType, entityID, op, payload, fmtTime(now), fmtTime(now))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListDueSync returns, for each entity with queued work, the head of its
// FIFO queue — provided that head is due. An entity whose head is still
// backing off yields nothing, so later mutations for it never jump the
// queue.
func (db *DB) ListDueSync(now time.Time, limit int) ([]SyncItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+syncItemCols+` FROM sync_queue q
		WHERE next_attempt_at <= ?
		AND id = (SELECT MIN(id) FROM sync_queue h WHERE h.entity_type = q.entity_type AND h.entity_id = q.entity_id)
		ORDER BY id LIMIT ?`, fmtTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SyncItem
	for rows.Next() {
		it, err := scanSyncItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListPendingSync returns all queued mutations in FIFO order.
func (db *DB) ListPendingSync(limit int) ([]SyncItem, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Query(`SELECT `+syncItemCols+` FROM sync_queue ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SyncItem
	for rows.Next() {
		it, err := scanSyncItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (db *DB) GetSyncItem(id int64) (*SyncItem, error) {
	return scanSyncItem(db.QueryRow(`SELECT `+syncItemCols+` FROM sync_queue WHERE id = ?`, id))
}

// DeleteSync removes a delivered (or superseded) mutation.
func (db *DB) DeleteSync(id int64) error {
	_, err := db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
	return err
}

// BumpSyncRetry records a failed attempt and schedules the next one.
func (db *DB) BumpSyncRetry(id int64, nextAttemptAt time.Time, lastError string) error {
	_, err := db.Exec(`UPDATE sync_queue SET attempts = attempts + 1, next_attempt_at = ?, last_error = ? WHERE id = ?`,
		fmtTime(nextAttemptAt), lastError, id)
	return err
}

// CountPendingSync returns the number of queued mutations.
func (db *DB) CountPendingSync() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&n)
	return n, err
}

// PendingCountForEntity returns how many queued mutations remain for an
// entity. Zero means the local record is fully reconciled.
func (db *DB) PendingCountForEntity(entityType, entityID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE entity_type = ? AND entity_id = ?`, entityType, entityID).Scan(&n)
	return n, err
}

// HasPendingOp reports whether a mutation of the given op is still
// queued for an entity.
func (db *DB) HasPendingOp(entityType, entityID, op string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE entity_type = ? AND entity_id = ? AND op = ?`,
		entityType, entityID, op).Scan(&n)
	return n > 0, err
}

// DropPendingForEntity discards queued mutations for an entity. Used when
// a terminal local transition supersedes earlier queued updates: the
// latest state wins and stale items must not be replayed.
func (db *DB) DropPendingForEntity(entityType, entityID string) (int64, error) {
	res, err := db.Exec(`DELETE FROM sync_queue WHERE entity_type = ? AND entity_id = ?`, entityType, entityID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MoveSyncToDeadLetter moves an exhausted mutation to the dead-letter
// list. Items are never silently dropped.
func (db *DB) MoveSyncToDeadLetter(id int64, lastError string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO sync_dead_letters (idempotency_key, entity_type, entity_id, op, payload, attempts, last_error, enqueued_at)
		SELECT idempotency_key, entity_type, entity_id, op, payload, attempts, ?, enqueued_at FROM sync_queue WHERE id = ?`,
		lastError, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sync item %d not found", id)
	}
	if _, err := tx.Exec(`DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListDeadLetters returns dead-lettered mutations oldest-first.
func (db *DB) ListDeadLetters(limit int) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Query(`
		SELECT id, idempotency_key, entity_type, entity_id, op, payload, attempts, last_error, enqueued_at, failed_at
		FROM sync_dead_letters ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []DeadLetter
	for rows.Next() {
		var dl DeadLetter
		var enqueuedAt, failedAt string
		if err := rows.Scan(&dl.ID, &dl.IdempotencyKey, &dl.EntityType, &dl.EntityID, &dl.Op,
			&dl.Payload, &dl.Attempts, &dl.LastError, &enqueuedAt, &failedAt); err != nil {
			return nil, err
		}
		dl.EnqueuedAt = scanTime(enqueuedAt)
		dl.FailedAt = scanTime(failedAt)
		letters = append(letters, dl)
	}
	return letters, rows.Err()
}

// CountDeadLetters returns the number of dead-lettered mutations.
func (db *DB) CountDeadLetters() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sync_dead_letters`).Scan(&n)
	return n, err
}

// RequeueDeadLetter moves a dead letter back onto the sync queue with a
// fresh attempt budget. This is the manual ops drain path.
func (db *DB) RequeueDeadLetter(id int64, now time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO sync_queue (idempotency_key, entity_type, entity_id, op, payload, attempts, next_attempt_at, enqueued_at)
		SELECT idempotency_key, entity_type, entity_id, op, payload, 0, ?, enqueued_at FROM sync_dead_letters WHERE id = ?`,
		fmtTime(now), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("dead letter %d not found", id)
	}
	if _, err := tx.Exec(`DELETE FROM sync_dead_letters WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
