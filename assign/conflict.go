package assign

import "time"

// Window is a proposed vehicle/pilot occupation over [StartTime, EndTime).
type Window struct {
	VehicleID string    `json:"vehicleId"`
	PilotID   string    `json:"pilotId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ActiveRecord is a non-terminal booking or deployment occupying a
// vehicle and/or pilot over a half-open time window.
type ActiveRecord struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicleId"`
	PilotID   string    `json:"pilotId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ConflictResult reports whether a proposed window collides with active
// records, and which ones.
type ConflictResult struct {
	Conflict bool     `json:"conflict"`
	IDs      []string `json:"ids,omitempty"`
}

// Overlaps tests two half-open intervals [aStart, aEnd) and
// [bStart, bEnd). Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DetectConflict checks a proposed window against the active set. A
// record conflicts when it shares the vehicle or the pilot and its time
// window overlaps on a half-open basis. All colliding IDs are reported
// so the caller can surface actionable detail.
func DetectConflict(proposed Window, active []ActiveRecord) ConflictResult {
	var result ConflictResult
	for _, rec := range active {
		sameVehicle := proposed.VehicleID != "" && rec.VehicleID == proposed.VehicleID
		samePilot := proposed.PilotID != "" && rec.PilotID == proposed.PilotID
		if !sameVehicle && !samePilot {
			continue
		}
		if !Overlaps(proposed.StartTime, proposed.EndTime, rec.StartTime, rec.EndTime) {
			continue
		}
		result.Conflict = true
		result.IDs = append(result.IDs, rec.ID)
	}
	return result
}
