package assign

import (
	"sort"
	"time"

	"fleetedge/fleet"
	"fleetedge/geo"
)

// Config holds the candidate filter defaults and score weighting.
type Config struct {
	MinBatteryPct float64         `yaml:"min_battery_pct"`
	MaxDistanceKm float64         `yaml:"max_distance_km"`
	Score         geo.ScoreConfig `yaml:"score"`
}

// DefaultConfig returns the stock selector tuning.
func DefaultConfig() Config {
	return Config{
		MinBatteryPct: 30,
		MaxDistanceKm: 50,
		Score:         geo.DefaultScoreConfig(),
	}
}

// Request describes what the caller needs a vehicle for. Zero-valued
// constraints fall back to the configured defaults.
type Request struct {
	Location        fleet.GeoPoint `json:"location"`
	MinBatteryPct   float64        `json:"minBatteryPct,omitempty"`
	MaxDistanceKm   float64        `json:"maxDistanceKm,omitempty"`
	SeatingRequired int            `json:"seatingRequired,omitempty"`
}

// Candidate is one ranked vehicle option.
type Candidate struct {
	Vehicle    fleet.Vehicle `json:"vehicle"`
	Score      float64       `json:"score"`
	DistanceKm float64       `json:"distanceKm"`
}

// SelectCandidates filters the pool down to dispatchable vehicles and
// ranks them by fitness score. Ties break by ascending distance, then by
// vehicle ID, so the ordering is stable across runs. An empty result is
// a normal outcome, not an error.
func SelectCandidates(req Request, pool []fleet.Vehicle, cfg Config, now time.Time) []Candidate {
	minBattery := req.MinBatteryPct
	if minBattery <= 0 {
		minBattery = cfg.MinBatteryPct
	}
	maxDistance := req.MaxDistanceKm
	if maxDistance <= 0 {
		maxDistance = cfg.MaxDistanceKm
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, v := range pool {
		if v.Status != fleet.VehicleAvailable {
			continue
		}
		if v.BatteryPct < minBattery {
			continue
		}
		if req.SeatingRequired > 0 && v.SeatingCapacity < req.SeatingRequired {
			continue
		}
		d := geo.HaversineKm(req.Location, v.Location)
		if d > maxDistance {
			continue
		}
		candidates = append(candidates, Candidate{
			Vehicle:    v,
			Score:      geo.FitnessScore(v, d, cfg.Score, now),
			DistanceKm: d,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Vehicle.ID < b.Vehicle.ID
	})

	return candidates
}
