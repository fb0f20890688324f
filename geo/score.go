package geo

import (
	"time"

	"fleetedge/fleet"
)

// ScoreConfig holds the fitness-score weights and normalization bounds.
// All of it is configuration so dispatch behavior can be tuned without
// code changes.
type ScoreConfig struct {
	DistanceWeight    float64 `yaml:"distance_weight"`
	BatteryWeight     float64 `yaml:"battery_weight"`
	MaintenanceWeight float64 `yaml:"maintenance_weight"`
	UtilizationWeight float64 `yaml:"utilization_weight"`

	// BatteryFloorPct is the battery level below which the battery
	// component scores zero; headroom above it scores linearly.
	BatteryFloorPct float64 `yaml:"battery_floor_pct"`
	// DistanceNormKm is the distance at which the distance component
	// reaches zero.
	DistanceNormKm float64 `yaml:"distance_norm_km"`
	// MaintenanceWindowDays is the age at which the maintenance
	// component reaches zero.
	MaintenanceWindowDays int `yaml:"maintenance_window_days"`
}

// DefaultScoreConfig returns the stock dispatch weighting.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		DistanceWeight:        0.40,
		BatteryWeight:         0.30,
		MaintenanceWeight:     0.15,
		UtilizationWeight:     0.15,
		BatteryFloorPct:       20,
		DistanceNormKm:        50,
		MaintenanceWindowDays: 90,
	}
}

// FitnessScore rates a vehicle for a dispatch request on a 0-100 scale.
// Components: proximity (inverse distance), battery headroom above the
// floor, maintenance recency, and utilization balance (under-utilized
// vehicles score higher to spread wear).
func FitnessScore(v fleet.Vehicle, distanceKm float64, cfg ScoreConfig, now time.Time) float64 {
	distance := 1 - clamp01(distanceKm/nonZero(cfg.DistanceNormKm, 50))

	headroom := (v.BatteryPct - cfg.BatteryFloorPct) / (100 - cfg.BatteryFloorPct)
	battery := clamp01(headroom)

	ageDays := now.Sub(v.LastMaintenanceAt).Hours() / 24
	window := float64(cfg.MaintenanceWindowDays)
	if window <= 0 {
		window = 90
	}
	maintenance := 1 - clamp01(ageDays/window)

	utilization := 1 / (1 + float64(v.ActiveDeployments))

	totalWeight := cfg.DistanceWeight + cfg.BatteryWeight + cfg.MaintenanceWeight + cfg.UtilizationWeight
	if totalWeight <= 0 {
		return 0
	}

	weighted := cfg.DistanceWeight*distance +
		cfg.BatteryWeight*battery +
		cfg.MaintenanceWeight*maintenance +
		cfg.UtilizationWeight*utilization

	return 100 * weighted / totalWeight
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonZero(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}
