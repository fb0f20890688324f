package assign

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestOverlapsHalfOpen(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"touching boundaries", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"contained", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"disjoint", at(10, 0), at(11, 0), at(12, 0), at(13, 0), false},
		{"nested", at(9, 0), at(13, 0), at(10, 0), at(11, 0), true},
		{"touching before", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			if got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectConflictSameVehicle(t *testing.T) {
	active := []ActiveRecord{
		{ID: "DEP-1", VehicleID: "veh-1", PilotID: "pilot-1", StartTime: at(9, 0), EndTime: at(10, 0)},
	}

	proposed := Window{VehicleID: "veh-1", PilotID: "pilot-2", StartTime: at(9, 30), EndTime: at(9, 45)}
	res := DetectConflict(proposed, active)
	if !res.Conflict {
		t.Fatal("expected conflict for overlapping vehicle window")
	}
	if len(res.IDs) != 1 || res.IDs[0] != "DEP-1" {
		t.Errorf("IDs = %v, want [DEP-1]", res.IDs)
	}
}

func TestDetectConflictSamePilot(t *testing.T) {
	active := []ActiveRecord{
		{ID: "DEP-2", VehicleID: "veh-9", PilotID: "pilot-1", StartTime: at(9, 0), EndTime: at(10, 0)},
	}

	proposed := Window{VehicleID: "veh-1", PilotID: "pilot-1", StartTime: at(9, 30), EndTime: at(10, 30)}
	if res := DetectConflict(proposed, active); !res.Conflict {
		t.Error("expected conflict for overlapping pilot window")
	}
}

func TestDetectConflictTouchingWindowsAllowed(t *testing.T) {
	active := []ActiveRecord{
		{ID: "DEP-3", VehicleID: "veh-1", StartTime: at(10, 0), EndTime: at(11, 0)},
	}

	proposed := Window{VehicleID: "veh-1", StartTime: at(11, 0), EndTime: at(12, 0)}
	if res := DetectConflict(proposed, active); res.Conflict {
		t.Errorf("back-to-back windows should not conflict, got IDs %v", res.IDs)
	}
}

func TestDetectConflictReportsAllCollisions(t *testing.T) {
	active := []ActiveRecord{
		{ID: "DEP-4", VehicleID: "veh-1", StartTime: at(9, 0), EndTime: at(10, 0)},
		{ID: "DEP-5", PilotID: "pilot-1", StartTime: at(9, 30), EndTime: at(10, 30)},
		{ID: "DEP-6", VehicleID: "veh-2", StartTime: at(9, 0), EndTime: at(10, 0)},
	}

	proposed := Window{VehicleID: "veh-1", PilotID: "pilot-1", StartTime: at(9, 45), EndTime: at(10, 15)}
	res := DetectConflict(proposed, active)
	if len(res.IDs) != 2 {
		t.Fatalf("IDs = %v, want two collisions", res.IDs)
	}
	if res.IDs[0] != "DEP-4" || res.IDs[1] != "DEP-5" {
		t.Errorf("IDs = %v, want [DEP-4 DEP-5]", res.IDs)
	}
}

func TestDetectConflictNoSharedResource(t *testing.T) {
	active := []ActiveRecord{
		{ID: "DEP-7", VehicleID: "veh-2", PilotID: "pilot-2", StartTime: at(9, 0), EndTime: at(17, 0)},
	}

	proposed := Window{VehicleID: "veh-1", PilotID: "pilot-1", StartTime: at(9, 0), EndTime: at(17, 0)}
	if res := DetectConflict(proposed, active); res.Conflict {
		t.Errorf("disjoint resources should not conflict, got IDs %v", res.IDs)
	}
}
