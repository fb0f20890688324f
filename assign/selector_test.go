package assign

import (
	"testing"
	"time"

	"fleetedge/fleet"
)

var selNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// hub is the dispatch point the test pool is arranged around.
var hub = fleet.GeoPoint{Lat: 12.9716, Lng: 77.5946}

func poolVehicle(id string, status string, battery float64, lat, lng float64) fleet.Vehicle {
	return fleet.Vehicle{
		ID:                id,
		RegistrationNumber: "KA01" + id,
		Status:            status,
		BatteryPct:        battery,
		Location:          fleet.GeoPoint{Lat: lat, Lng: lng},
		SeatingCapacity:   4,
		LastMaintenanceAt: selNow.AddDate(0, 0, -15),
	}
}

func TestSelectCandidatesFiltersUnavailable(t *testing.T) {
	pool := []fleet.Vehicle{
		poolVehicle("v1", fleet.VehicleAvailable, 80, 12.975, 77.60),
		poolVehicle("v2", fleet.VehicleDeployed, 95, 12.975, 77.60),
		poolVehicle("v3", fleet.VehicleMaintenance, 95, 12.975, 77.60),
		poolVehicle("v4", fleet.VehicleOutOfService, 95, 12.975, 77.60),
	}

	got := SelectCandidates(Request{Location: hub}, pool, DefaultConfig(), selNow)
	if len(got) != 1 || got[0].Vehicle.ID != "v1" {
		t.Fatalf("candidates = %+v, want only v1", got)
	}
}

func TestSelectCandidatesFiltersLowBattery(t *testing.T) {
	pool := []fleet.Vehicle{
		poolVehicle("v1", fleet.VehicleAvailable, 29.9, 12.975, 77.60),
		poolVehicle("v2", fleet.VehicleAvailable, 30, 12.975, 77.60),
	}

	got := SelectCandidates(Request{Location: hub}, pool, DefaultConfig(), selNow)
	if len(got) != 1 || got[0].Vehicle.ID != "v2" {
		t.Fatalf("candidates = %+v, want only v2 (default 30%% floor)", got)
	}

	// Caller can tighten the floor per request.
	got = SelectCandidates(Request{Location: hub, MinBatteryPct: 50}, pool, DefaultConfig(), selNow)
	if len(got) != 0 {
		t.Fatalf("candidates = %+v, want none at 50%% floor", got)
	}
}

func TestSelectCandidatesFiltersDistance(t *testing.T) {
	pool := []fleet.Vehicle{
		poolVehicle("near", fleet.VehicleAvailable, 80, 12.98, 77.60),
		poolVehicle("far", fleet.VehicleAvailable, 80, 14.0, 79.0), // well beyond 50 km
	}

	got := SelectCandidates(Request{Location: hub}, pool, DefaultConfig(), selNow)
	if len(got) != 1 || got[0].Vehicle.ID != "near" {
		t.Fatalf("candidates = %+v, want only near", got)
	}
}

func TestSelectCandidatesFiltersSeating(t *testing.T) {
	small := poolVehicle("small", fleet.VehicleAvailable, 80, 12.975, 77.60)
	small.SeatingCapacity = 2
	big := poolVehicle("big", fleet.VehicleAvailable, 80, 12.975, 77.60)
	big.SeatingCapacity = 6

	got := SelectCandidates(Request{Location: hub, SeatingRequired: 4}, []fleet.Vehicle{small, big}, DefaultConfig(), selNow)
	if len(got) != 1 || got[0].Vehicle.ID != "big" {
		t.Fatalf("candidates = %+v, want only big", got)
	}
}

func TestSelectCandidatesOrdering(t *testing.T) {
	// Same battery and maintenance; closer vehicle must rank first.
	pool := []fleet.Vehicle{
		poolVehicle("farther", fleet.VehicleAvailable, 80, 13.05, 77.65),
		poolVehicle("closer", fleet.VehicleAvailable, 80, 12.98, 77.60),
	}

	got := SelectCandidates(Request{Location: hub}, pool, DefaultConfig(), selNow)
	if len(got) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(got))
	}
	if got[0].Vehicle.ID != "closer" {
		t.Errorf("first candidate = %s, want closer", got[0].Vehicle.ID)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("scores out of order: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestSelectCandidatesTieBreaksByVehicleID(t *testing.T) {
	// Identical vehicles at the same spot: ordering must fall through to ID.
	pool := []fleet.Vehicle{
		poolVehicle("v-b", fleet.VehicleAvailable, 80, 12.975, 77.60),
		poolVehicle("v-a", fleet.VehicleAvailable, 80, 12.975, 77.60),
	}

	got := SelectCandidates(Request{Location: hub}, pool, DefaultConfig(), selNow)
	if len(got) != 2 || got[0].Vehicle.ID != "v-a" || got[1].Vehicle.ID != "v-b" {
		t.Fatalf("candidates = %+v, want [v-a v-b]", got)
	}
}

func TestSelectCandidatesEmptyPoolIsNormal(t *testing.T) {
	got := SelectCandidates(Request{Location: hub}, nil, DefaultConfig(), selNow)
	if len(got) != 0 {
		t.Fatalf("candidates = %+v, want empty", got)
	}
}
