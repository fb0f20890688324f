package store

const schema = `
CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS bookings (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    ref                 TEXT NOT NULL UNIQUE,
    server_ref          TEXT NOT NULL DEFAULT '',
    customer_name       TEXT NOT NULL,
    customer_phone      TEXT NOT NULL DEFAULT '',
    booking_type        TEXT NOT NULL,
    airport_leg         TEXT NOT NULL DEFAULT '',
    scheduled_at        TEXT NOT NULL,
    scheduled_end       TEXT NOT NULL,
    pickup_address      TEXT NOT NULL DEFAULT '',
    drop_address        TEXT NOT NULL DEFAULT '',
    pickup_lat          REAL NOT NULL DEFAULT 0,
    pickup_lng          REAL NOT NULL DEFAULT 0,
    estimated_cost      REAL NOT NULL DEFAULT 0,
    actual_cost         REAL,
    payment_mode        TEXT NOT NULL DEFAULT '',
    payment_status      TEXT NOT NULL DEFAULT '',
    vehicle_id          TEXT NOT NULL DEFAULT '',
    pilot_id            TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'pending',
    rating              INTEGER,
    feedback            TEXT NOT NULL DEFAULT '',
    cancellation_reason TEXT NOT NULL DEFAULT '',
    pending_sync        INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    completed_at        TEXT,
    cancelled_at        TEXT
);
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
CREATE INDEX IF NOT EXISTS idx_bookings_ref ON bookings(ref);

CREATE TABLE IF NOT EXISTS booking_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    booking_id INTEGER NOT NULL REFERENCES bookings(id),
    old_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS deployments (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid                TEXT NOT NULL UNIQUE,
    vehicle_id          TEXT NOT NULL,
    pilot_id            TEXT NOT NULL,
    start_time          TEXT NOT NULL,
    estimated_end_time  TEXT NOT NULL,
    actual_end_time     TEXT,
    start_lat           REAL NOT NULL DEFAULT 0,
    start_lng           REAL NOT NULL DEFAULT 0,
    end_lat             REAL,
    end_lng             REAL,
    purpose             TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'scheduled',
    tracking            TEXT,
    cancellation_reason TEXT NOT NULL DEFAULT '',
    pending_sync        INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    completed_at        TEXT,
    cancelled_at        TEXT
);
CREATE INDEX IF NOT EXISTS idx_deployments_status ON deployments(status);
CREATE INDEX IF NOT EXISTS idx_deployments_vehicle ON deployments(vehicle_id);

CREATE TABLE IF NOT EXISTS deployment_history (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    deployment_id INTEGER NOT NULL REFERENCES deployments(id),
    old_status    TEXT NOT NULL,
    new_status    TEXT NOT NULL,
    detail        TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS sync_queue (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    idempotency_key TEXT NOT NULL UNIQUE,
    entity_type     TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    op              TEXT NOT NULL,
    payload         BLOB NOT NULL,
    attempts        INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TEXT NOT NULL,
    last_error      TEXT NOT NULL DEFAULT '',
    enqueued_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_sync_queue_entity ON sync_queue(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_sync_queue_due ON sync_queue(next_attempt_at);

CREATE TABLE IF NOT EXISTS sync_dead_letters (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    idempotency_key TEXT NOT NULL,
    entity_type     TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    op              TEXT NOT NULL,
    payload         BLOB NOT NULL,
    attempts        INTEGER NOT NULL,
    last_error      TEXT NOT NULL DEFAULT '',
    enqueued_at     TEXT NOT NULL,
    failed_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
`

func (db *DB) migrate() error {
	_, err := db.Exec(schema)
	return err
}
