package geo

import (
	"math"
	"testing"
	"time"

	"fleetedge/fleet"
)

func TestHaversineZeroForIdenticalPoints(t *testing.T) {
	points := []fleet.GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
	}
	for _, p := range points {
		if d := HaversineKm(p, p); d != 0 {
			t.Errorf("HaversineKm(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := fleet.GeoPoint{Lat: 12.9716, Lng: 77.5946}  // Bengaluru
	b := fleet.GeoPoint{Lat: 13.1986, Lng: 77.7066}  // Kempegowda airport
	if d1, d2 := HaversineKm(a, b), HaversineKm(b, a); d1 != d2 {
		t.Errorf("HaversineKm not symmetric: %v vs %v", d1, d2)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Bengaluru city center to Kempegowda airport, roughly 28.7 km.
	a := fleet.GeoPoint{Lat: 12.9716, Lng: 77.5946}
	b := fleet.GeoPoint{Lat: 13.1986, Lng: 77.7066}
	d := HaversineKm(a, b)
	if math.Abs(d-28.7) > 1.0 {
		t.Errorf("HaversineKm = %v, want ~28.7", d)
	}
}

func TestFitnessScoreBounds(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cfg := DefaultScoreConfig()

	best := fleet.Vehicle{BatteryPct: 100, LastMaintenanceAt: now, ActiveDeployments: 0}
	worst := fleet.Vehicle{BatteryPct: 0, LastMaintenanceAt: now.AddDate(-1, 0, 0), ActiveDeployments: 50}

	hi := FitnessScore(best, 0, cfg, now)
	lo := FitnessScore(worst, 500, cfg, now)

	if hi < 99 || hi > 100 {
		t.Errorf("best-case score = %v, want ~100", hi)
	}
	if lo < 0 || lo > 5 {
		t.Errorf("worst-case score = %v, want ~0", lo)
	}
}

func TestFitnessScorePrefersCloserVehicle(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cfg := DefaultScoreConfig()
	v := fleet.Vehicle{BatteryPct: 80, LastMaintenanceAt: now.AddDate(0, 0, -10)}

	near := FitnessScore(v, 2, cfg, now)
	far := FitnessScore(v, 40, cfg, now)
	if near <= far {
		t.Errorf("near score %v should beat far score %v", near, far)
	}
}

func TestFitnessScorePrefersUnderUtilized(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cfg := DefaultScoreConfig()

	idle := fleet.Vehicle{BatteryPct: 80, LastMaintenanceAt: now, ActiveDeployments: 0}
	busy := fleet.Vehicle{BatteryPct: 80, LastMaintenanceAt: now, ActiveDeployments: 4}

	if si, sb := FitnessScore(idle, 5, cfg, now), FitnessScore(busy, 5, cfg, now); si <= sb {
		t.Errorf("idle score %v should beat busy score %v", si, sb)
	}
}

func TestFitnessScoreBatteryFloor(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cfg := DefaultScoreConfig()

	atFloor := fleet.Vehicle{BatteryPct: cfg.BatteryFloorPct, LastMaintenanceAt: now}
	below := fleet.Vehicle{BatteryPct: cfg.BatteryFloorPct - 10, LastMaintenanceAt: now}

	if FitnessScore(atFloor, 5, cfg, now) != FitnessScore(below, 5, cfg, now) {
		t.Error("battery below the floor should not score lower than at the floor")
	}
}
