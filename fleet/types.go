package fleet

import (
	"fmt"
	"time"
)

// Booking types
const (
	BookingTypeAirport      = "airport"
	BookingTypeRental       = "rental"
	BookingTypeSubscription = "subscription"
)

// Airport booking legs
const (
	AirportLegPickup = "pickup"
	AirportLegDrop   = "drop"
)

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingAssigned   BookingStatus = "assigned"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// DeploymentStatus is the closed set of deployment lifecycle states.
type DeploymentStatus string

const (
	DeploymentScheduled  DeploymentStatus = "scheduled"
	DeploymentInProgress DeploymentStatus = "in_progress"
	DeploymentCompleted  DeploymentStatus = "completed"
	DeploymentCancelled  DeploymentStatus = "cancelled"
)

// Vehicle statuses (owned by the vehicle registry; read-only here).
const (
	VehicleAvailable    = "available"
	VehicleDeployed     = "deployed"
	VehicleMaintenance  = "maintenance"
	VehicleOutOfService = "out_of_service"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Booking is a customer trip reservation.
type Booking struct {
	ID        int64  `json:"id"`
	Ref       string `json:"ref"`                 // SB + 13 digits, assigned locally
	ServerRef string `json:"serverRef,omitempty"` // canonical ref once the authority confirms

	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Type          string `json:"type"`
	AirportLeg    string `json:"airportLeg,omitempty"`

	ScheduledAt  time.Time `json:"scheduledAt"`
	ScheduledEnd time.Time `json:"scheduledEnd"`

	PickupAddress string   `json:"pickupAddress"`
	DropAddress   string   `json:"dropAddress,omitempty"`
	Pickup        GeoPoint `json:"pickup"`

	EstimatedCost float64  `json:"estimatedCost"`
	ActualCost    *float64 `json:"actualCost,omitempty"`
	PaymentMode   string   `json:"paymentMode"`
	PaymentStatus string   `json:"paymentStatus"`

	VehicleID string `json:"vehicleId,omitempty"`
	PilotID   string `json:"pilotId,omitempty"`

	Status             BookingStatus `json:"status"`
	Rating             *int          `json:"rating,omitempty"`
	Feedback           string        `json:"feedback,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`

	PendingSync bool `json:"pendingSync"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// TrackingSnapshot is a realtime reading from a deployed vehicle.
type TrackingSnapshot struct {
	Location   GeoPoint  `json:"location"`
	BatteryPct float64   `json:"batteryPct"`
	SpeedKmh   float64   `json:"speedKmh"`
	OdometerKm float64   `json:"odometerKm"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Deployment is a vehicle/pilot assignment over a time window.
type Deployment struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`

	VehicleID string `json:"vehicleId"`
	PilotID   string `json:"pilotId"`

	StartTime        time.Time  `json:"startTime"`
	EstimatedEndTime time.Time  `json:"estimatedEndTime"`
	ActualEndTime    *time.Time `json:"actualEndTime,omitempty"`

	StartLocation GeoPoint  `json:"startLocation"`
	EndLocation   *GeoPoint `json:"endLocation,omitempty"`

	Purpose string           `json:"purpose"`
	Status  DeploymentStatus `json:"status"`

	Tracking *TrackingSnapshot `json:"tracking,omitempty"`

	CancellationReason string `json:"cancellationReason,omitempty"`

	PendingSync bool `json:"pendingSync"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// Vehicle is the canonical (camelCase) view of a registry vehicle.
// The registry owns these records; this engine only reads them for
// scoring and validation.
type Vehicle struct {
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	BatteryPct         float64   `json:"batteryPct"`
	Status             string    `json:"status"`
	Location           GeoPoint  `json:"location"`
	RangeKm            float64   `json:"rangeKm"`
	SeatingCapacity    int       `json:"seatingCapacity"`
	LastMaintenanceAt  time.Time `json:"lastMaintenanceAt"`
	ActiveDeployments  int       `json:"activeDeployments"` // utilization over the current duty cycle
}

// NewBookingRef builds a booking reference from the creation instant:
// "SB" followed by the 13-digit unix-millisecond timestamp.
func NewBookingRef(now time.Time) string {
	return fmt.Sprintf("SB%013d", now.UnixMilli())
}
