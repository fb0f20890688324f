package messaging

import "time"

// Ops event kinds published to the operations topic.
const (
	KindNodeOnline     = "node.online"
	KindNodeHeartbeat  = "node.heartbeat"
	KindSyncDeadLetter = "sync.dead_letter"
	KindBookingStatus  = "booking.status"
)

// OpsEvent is the envelope for everything on the operations topic.
type OpsEvent struct {
	Kind      string      `json:"kind"`
	NodeID    string      `json:"nodeId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NodeOnline announces an edge node coming up.
type NodeOnline struct {
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
	DepotID  string `json:"depotId"`
}

// NodeHeartbeat is the periodic liveness report. Queue depths ride
// along so operators can spot a depot falling behind on sync without
// polling its API.
type NodeHeartbeat struct {
	UptimeSeconds int64 `json:"uptimeSeconds"`
	PendingSync   int   `json:"pendingSync"`
	DeadLetters   int   `json:"deadLetters"`
}

// SyncDeadLetter alerts operators that a mutation exhausted its retries
// and needs a manual requeue.
type SyncDeadLetter struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Op         string `json:"op"`
	LastError  string `json:"lastError"`
}

// BookingStatus mirrors booking lifecycle changes onto the ops channel.
type BookingStatus struct {
	Ref       string `json:"ref"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}
