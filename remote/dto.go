package remote

import (
	"time"

	"fleetedge/fleet"
)

// Request/response DTOs are explicit per operation. Nothing is wrapped
// in generic document envelopes and nothing passes through untyped.

// BookingRequest is the create/update body for POST|PUT /bookings.
type BookingRequest struct {
	Ref           string         `json:"ref"`
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
	Type          string         `json:"type"`
	AirportLeg    string         `json:"airportLeg,omitempty"`
	ScheduledAt   time.Time      `json:"scheduledAt"`
	ScheduledEnd  time.Time      `json:"scheduledEnd"`
	PickupAddress string         `json:"pickupAddress"`
	DropAddress   string         `json:"dropAddress,omitempty"`
	Pickup        fleet.GeoPoint `json:"pickup"`
	EstimatedCost float64        `json:"estimatedCost"`
	ActualCost    *float64       `json:"actualCost,omitempty"`
	PaymentMode   string         `json:"paymentMode"`
	PaymentStatus string         `json:"paymentStatus"`
	VehicleID     string         `json:"vehicleId,omitempty"`
	PilotID       string         `json:"pilotId,omitempty"`
	Status        string         `json:"status"`
	Rating        *int           `json:"rating,omitempty"`
	Feedback      string         `json:"feedback,omitempty"`
}

// BookingRecord is the authority's canonical booking representation.
type BookingRecord struct {
	Ref       string    `json:"ref"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CancelRequest is the body for DELETE /bookings/{ref} and deployment
// cancellation.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// DeploymentRequest is the create/update body for POST|PUT /deployments.
type DeploymentRequest struct {
	UUID             string          `json:"uuid"`
	VehicleID        string          `json:"vehicleId"`
	PilotID          string          `json:"pilotId"`
	StartTime        time.Time       `json:"startTime"`
	EstimatedEndTime time.Time       `json:"estimatedEndTime"`
	ActualEndTime    *time.Time      `json:"actualEndTime,omitempty"`
	StartLocation    fleet.GeoPoint  `json:"startLocation"`
	EndLocation      *fleet.GeoPoint `json:"endLocation,omitempty"`
	Purpose          string          `json:"purpose"`
	Status           string          `json:"status"`

	Tracking           *fleet.TrackingSnapshot `json:"tracking,omitempty"`
	CancellationReason string                  `json:"cancellationReason,omitempty"`
}

// DeploymentRecord is the authority's canonical deployment representation.
type DeploymentRecord struct {
	UUID      string    `json:"uuid"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TrackingRequest is the body for PUT /deployments/{uuid}/tracking.
type TrackingRequest struct {
	Location   fleet.GeoPoint `json:"location"`
	BatteryPct float64        `json:"batteryPct"`
	SpeedKmh   float64        `json:"speedKmh"`
	OdometerKm float64        `json:"odometerKm"`
	RecordedAt time.Time      `json:"recordedAt"`
}

// registryVehicle is the vehicle registry's wire format. The registry
// predates the platform's camelCase convention and still serves
// PascalCase fields; this is the single place where that shape is
// allowed to exist.
type registryVehicle struct {
	VehicleID          string  `json:"VehicleId"`
	RegistrationNumber string  `json:"RegistrationNumber"`
	BatteryPercentage  float64 `json:"BatteryPercentage"`
	CurrentStatus      string  `json:"CurrentStatus"`
	Latitude           float64 `json:"Latitude"`
	Longitude          float64 `json:"Longitude"`
	RangeKm            float64 `json:"RangeKm"`
	SeatingCapacity    int     `json:"SeatingCapacity"`
	LastMaintenanceAt  string  `json:"LastMaintenanceDate"`
	ActiveDeployments  int     `json:"ActiveDeployments"`
}

// canonical converts a registry vehicle to the platform's camelCase
// schema used by the matching and conflict logic.
func (rv registryVehicle) canonical() fleet.Vehicle {
	maintained, _ := time.Parse(time.RFC3339, rv.LastMaintenanceAt)
	return fleet.Vehicle{
		ID:                 rv.VehicleID,
		RegistrationNumber: rv.RegistrationNumber,
		BatteryPct:         rv.BatteryPercentage,
		Status:             rv.CurrentStatus,
		Location:           fleet.GeoPoint{Lat: rv.Latitude, Lng: rv.Longitude},
		RangeKm:            rv.RangeKm,
		SeatingCapacity:    rv.SeatingCapacity,
		LastMaintenanceAt:  maintained,
		ActiveDeployments:  rv.ActiveDeployments,
	}
}

// BookingToRequest builds the wire request from a local booking.
func BookingToRequest(b *fleet.Booking) BookingRequest {
	return BookingRequest{
		Ref:           b.Ref,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		Type:          b.Type,
		AirportLeg:    b.AirportLeg,
		ScheduledAt:   b.ScheduledAt,
		ScheduledEnd:  b.ScheduledEnd,
		PickupAddress: b.PickupAddress,
		DropAddress:   b.DropAddress,
		Pickup:        b.Pickup,
		EstimatedCost: b.EstimatedCost,
		ActualCost:    b.ActualCost,
		PaymentMode:   b.PaymentMode,
		PaymentStatus: b.PaymentStatus,
		VehicleID:     b.VehicleID,
		PilotID:       b.PilotID,
		Status:        string(b.Status),
		Rating:        b.Rating,
		Feedback:      b.Feedback,
	}
}

// DeploymentToRequest builds the wire request from a local deployment.
func DeploymentToRequest(d *fleet.Deployment) DeploymentRequest {
	return DeploymentRequest{
		UUID:               d.UUID,
		VehicleID:          d.VehicleID,
		PilotID:            d.PilotID,
		StartTime:          d.StartTime,
		EstimatedEndTime:   d.EstimatedEndTime,
		ActualEndTime:      d.ActualEndTime,
		StartLocation:      d.StartLocation,
		EndLocation:        d.EndLocation,
		Purpose:            d.Purpose,
		Status:             string(d.Status),
		Tracking:           d.Tracking,
		CancellationReason: d.CancellationReason,
	}
}
