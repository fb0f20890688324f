package store

import (
	"testing"
	"time"

	"fleetedge/fleet"
)

func testBooking(now time.Time) *fleet.Booking {
	return &fleet.Booking{
		Ref:           fleet.NewBookingRef(now),
		CustomerName:  "Asha Rao",
		CustomerPhone: "+919800000000",
		Type:          fleet.BookingTypeAirport,
		AirportLeg:    fleet.AirportLegDrop,
		ScheduledAt:   now.Add(time.Hour),
		ScheduledEnd:  now.Add(2 * time.Hour),
		PickupAddress: "12 MG Road",
		DropAddress:   "Kempegowda Airport T2",
		Pickup:        fleet.GeoPoint{Lat: 12.9716, Lng: 77.5946},
		EstimatedCost: 850,
		PaymentMode:   "upi",
		PaymentStatus: "pending",
		Status:        fleet.BookingPending,
		PendingSync:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestBookingRoundTrip(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	b := testBooking(now)
	id, err := db.CreateBooking(b)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	got, err := db.GetBooking(id)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.Ref != b.Ref {
		t.Errorf("ref = %q, want %q", got.Ref, b.Ref)
	}
	if got.Status != fleet.BookingPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if !got.ScheduledAt.Equal(b.ScheduledAt) {
		t.Errorf("scheduledAt = %v, want %v", got.ScheduledAt, b.ScheduledAt)
	}
	if got.ActualCost != nil {
		t.Errorf("actualCost = %v, want nil before completion", *got.ActualCost)
	}
	if !got.PendingSync {
		t.Error("pendingSync should survive the round trip")
	}

	byRef, err := db.GetBookingByRef(b.Ref)
	if err != nil {
		t.Fatalf("GetBookingByRef: %v", err)
	}
	if byRef.ID != id {
		t.Errorf("id = %d, want %d", byRef.ID, id)
	}
}

func TestBookingUpdatePersistsTransitionFields(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	b := testBooking(now)
	id, err := db.CreateBooking(b)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	b.ID = id

	cost := 910.0
	b.Status = fleet.BookingCompleted
	b.ActualCost = &cost
	done := now.Add(2 * time.Hour)
	b.CompletedAt = &done
	b.UpdatedAt = done
	b.PendingSync = false
	if err := db.UpdateBooking(b); err != nil {
		t.Fatalf("UpdateBooking: %v", err)
	}

	got, err := db.GetBooking(id)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.Status != fleet.BookingCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.ActualCost == nil || *got.ActualCost != cost {
		t.Errorf("actualCost = %v, want %v", got.ActualCost, cost)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Errorf("completedAt = %v, want %v", got.CompletedAt, done)
	}
	if got.PendingSync {
		t.Error("pendingSync should be cleared")
	}
}

func TestListBookingsStatusFilterAndPagination(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		b := testBooking(now.Add(time.Duration(i) * time.Minute))
		if i%2 == 0 {
			b.Status = fleet.BookingConfirmed
		}
		if _, err := db.CreateBooking(b); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	confirmed, err := db.ListBookings("confirmed", 50, 0)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(confirmed) != 3 {
		t.Errorf("confirmed = %d, want 3", len(confirmed))
	}

	page, err := db.ListBookings("", 2, 2)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page = %d, want 2", len(page))
	}
}

func TestDeploymentRoundTripWithTracking(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	d := &fleet.Deployment{
		UUID:             "dep-uuid-1",
		VehicleID:        "veh-1",
		PilotID:          "pilot-1",
		StartTime:        now,
		EstimatedEndTime: now.Add(4 * time.Hour),
		StartLocation:    fleet.GeoPoint{Lat: 12.9716, Lng: 77.5946},
		Purpose:          "airport shuttle",
		Status:           fleet.DeploymentScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	id, err := db.CreateDeployment(d)
	if err != nil {
		t.Fatalf("CreateDeployment: %v", err)
	}
	d.ID = id

	d.Status = fleet.DeploymentInProgress
	d.Tracking = &fleet.TrackingSnapshot{
		Location:   fleet.GeoPoint{Lat: 12.99, Lng: 77.61},
		BatteryPct: 72,
		SpeedKmh:   38,
		OdometerKm: 10234.5,
		RecordedAt: now.Add(30 * time.Minute),
	}
	if err := db.UpdateDeployment(d); err != nil {
		t.Fatalf("UpdateDeployment: %v", err)
	}

	got, err := db.GetDeploymentByUUID("dep-uuid-1")
	if err != nil {
		t.Fatalf("GetDeploymentByUUID: %v", err)
	}
	if got.Tracking == nil {
		t.Fatal("tracking snapshot not persisted")
	}
	if got.Tracking.BatteryPct != 72 {
		t.Errorf("batteryPct = %v, want 72", got.Tracking.BatteryPct)
	}
	if got.EndLocation != nil {
		t.Errorf("endLocation = %v, want nil before completion", got.EndLocation)
	}
}

func TestHistoryTables(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	b := testBooking(now)
	id, _ := db.CreateBooking(b)

	db.InsertBookingHistory(id, "pending", "confirmed", "")
	db.InsertBookingHistory(id, "confirmed", "assigned", "vehicle veh-1")

	hist, err := db.ListBookingHistory(id)
	if err != nil {
		t.Fatalf("ListBookingHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len(hist) = %d, want 2", len(hist))
	}
	if hist[1].NewStatus != "assigned" || hist[1].Detail != "vehicle veh-1" {
		t.Errorf("hist[1] = %+v", hist[1])
	}
}
