package engine

import "time"

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Booking events
	EventBookingCreated EventType = iota + 1
	EventBookingStatusChanged

	// Deployment events
	EventDeploymentCreated
	EventDeploymentStatusChanged
	EventDeploymentTracking

	// Sync events
	EventSyncDelivered
	EventSyncDeadLettered
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// BookingCreatedEvent is emitted when a booking is accepted locally.
type BookingCreatedEvent struct {
	BookingID   int64  `json:"bookingId"`
	Ref         string `json:"ref"`
	Type        string `json:"type"`
	PendingSync bool   `json:"pendingSync"`
}

// BookingStatusChangedEvent is emitted on every booking transition.
type BookingStatusChangedEvent struct {
	BookingID int64  `json:"bookingId"`
	Ref       string `json:"ref"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// DeploymentCreatedEvent is emitted when a deployment is accepted locally.
type DeploymentCreatedEvent struct {
	DeploymentID int64  `json:"deploymentId"`
	UUID         string `json:"uuid"`
	VehicleID    string `json:"vehicleId"`
	PilotID      string `json:"pilotId"`
	PendingSync  bool   `json:"pendingSync"`
}

// DeploymentStatusChangedEvent is emitted on every deployment transition.
type DeploymentStatusChangedEvent struct {
	DeploymentID int64  `json:"deploymentId"`
	UUID         string `json:"uuid"`
	OldStatus    string `json:"oldStatus"`
	NewStatus    string `json:"newStatus"`
}

// DeploymentTrackingEvent is emitted on every accepted tracking snapshot.
type DeploymentTrackingEvent struct {
	DeploymentID int64   `json:"deploymentId"`
	UUID         string  `json:"uuid"`
	BatteryPct   float64 `json:"batteryPct"`
	SpeedKmh     float64 `json:"speedKmh"`
}

// SyncDeliveredEvent is emitted when a queued mutation reaches the
// authority.
type SyncDeliveredEvent struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Op         string `json:"op"`
	ServerRef  string `json:"serverRef,omitempty"`
}

// SyncDeadLetteredEvent is emitted when a queued mutation exhausts its
// retries. This is the operational channel; dead letters are never
// silently dropped.
type SyncDeadLetteredEvent struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Op         string `json:"op"`
	LastError  string `json:"lastError"`
}
