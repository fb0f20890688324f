package store

import (
	"database/sql"
	"encoding/json"

	"fleetedge/fleet"
)

const deploymentCols = `id, uuid, vehicle_id, pilot_id, start_time, estimated_end_time, actual_end_time,
	start_lat, start_lng, end_lat, end_lng, purpose, status, tracking,
	cancellation_reason, pending_sync, created_at, updated_at, completed_at, cancelled_at`

func scanDeployment(row interface{ Scan(...interface{}) error }) (*fleet.Deployment, error) {
	d := &fleet.Deployment{}
	var startTime, estimatedEnd, createdAt, updatedAt string
	var actualEnd, tracking, completedAt, cancelledAt sql.NullString
	var endLat, endLng sql.NullFloat64

	err := row.Scan(&d.ID, &d.UUID, &d.VehicleID, &d.PilotID, &startTime, &estimatedEnd, &actualEnd,
		&d.StartLocation.Lat, &d.StartLocation.Lng, &endLat, &endLng, &d.Purpose, &d.Status, &tracking,
		&d.CancellationReason, &d.PendingSync, &createdAt, &updatedAt, &completedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}

	d.StartTime = scanTime(startTime)
	d.EstimatedEndTime = scanTime(estimatedEnd)
	d.ActualEndTime = scanTimePtr(actualEnd)
	d.CreatedAt = scanTime(createdAt)
	d.UpdatedAt = scanTime(updatedAt)
	d.CompletedAt = scanTimePtr(completedAt)
	d.CancelledAt = scanTimePtr(cancelledAt)
	if endLat.Valid && endLng.Valid {
		d.EndLocation = &fleet.GeoPoint{Lat: endLat.Float64, Lng: endLng.Float64}
	}
	if tracking.Valid && tracking.String != "" {
		var snap fleet.TrackingSnapshot
		if err := json.Unmarshal([]byte(tracking.String), &snap); err == nil {
			d.Tracking = &snap
		}
	}
	return d, nil
}

func trackingJSON(snap *fleet.TrackingSnapshot) interface{} {
	if snap == nil {
		return nil
	}
	data, _ := json.Marshal(snap)
	return string(data)
}

// CreateDeployment inserts a deployment and returns its row ID.
func (db *DB) CreateDeployment(d *fleet.Deployment) (int64, error) {
	var endLat, endLng interface{}
	if d.EndLocation != nil {
		endLat, endLng = d.EndLocation.Lat, d.EndLocation.Lng
	}
	res, err := db.Exec(`
		INSERT INTO deployments (uuid, vehicle_id, pilot_id, start_time, estimated_end_time, actual_end_time,
			start_lat, start_lng, end_lat, end_lng, purpose, status, tracking,
			cancellation_reason, pending_sync, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UUID, d.VehicleID, d.PilotID, fmtTime(d.StartTime), fmtTime(d.EstimatedEndTime), fmtTimePtr(d.ActualEndTime),
		d.StartLocation.Lat, d.StartLocation.Lng, endLat, endLng, d.Purpose, d.Status, trackingJSON(d.Tracking),
		d.CancellationReason, d.PendingSync, fmtTime(d.CreatedAt), fmtTime(d.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateDeployment rewrites all mutable deployment fields.
func (db *DB) UpdateDeployment(d *fleet.Deployment) error {
	var endLat, endLng interface{}
	if d.EndLocation != nil {
		endLat, endLng = d.EndLocation.Lat, d.EndLocation.Lng
	}
	_, err := db.Exec(`
		UPDATE deployments SET vehicle_id=?, pilot_id=?, start_time=?, estimated_end_time=?, actual_end_time=?,
			start_lat=?, start_lng=?, end_lat=?, end_lng=?, purpose=?, status=?, tracking=?,
			cancellation_reason=?, pending_sync=?, updated_at=?, completed_at=?, cancelled_at=?
		WHERE id=?`,
		d.VehicleID, d.PilotID, fmtTime(d.StartTime), fmtTime(d.EstimatedEndTime), fmtTimePtr(d.ActualEndTime),
		d.StartLocation.Lat, d.StartLocation.Lng, endLat, endLng, d.Purpose, d.Status, trackingJSON(d.Tracking),
		d.CancellationReason, d.PendingSync, fmtTime(d.UpdatedAt), fmtTimePtr(d.CompletedAt), fmtTimePtr(d.CancelledAt),
		d.ID)
	return err
}

func (db *DB) GetDeployment(id int64) (*fleet.Deployment, error) {
	return scanDeployment(db.QueryRow(`SELECT `+deploymentCols+` FROM deployments WHERE id = ?`, id))
}

func (db *DB) GetDeploymentByUUID(uuid string) (*fleet.Deployment, error) {
	return scanDeployment(db.QueryRow(`SELECT `+deploymentCols+` FROM deployments WHERE uuid = ?`, uuid))
}

// ListDeployments returns deployments newest-first, optionally filtered
// by status, with limit/offset pagination.
func (db *DB) ListDeployments(status string, limit, offset int) ([]fleet.Deployment, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + deploymentCols + ` FROM deployments`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []fleet.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *d)
	}
	return deployments, rows.Err()
}

// ListActiveDeployments returns deployments in a non-terminal status.
func (db *DB) ListActiveDeployments() ([]fleet.Deployment, error) {
	rows, err := db.Query(`SELECT ` + deploymentCols + ` FROM deployments
		WHERE status NOT IN ('completed', 'cancelled')
		ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []fleet.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *d)
	}
	return deployments, rows.Err()
}

// DeploymentHistory records a deployment status transition.
type DeploymentHistory struct {
	ID           int64  `json:"id"`
	DeploymentID int64  `json:"deploymentId"`
	OldStatus    string `json:"oldStatus"`
	NewStatus    string `json:"newStatus"`
	Detail       string `json:"detail"`
	CreatedAt    string `json:"createdAt"`
}

func (db *DB) InsertDeploymentHistory(deploymentID int64, oldStatus, newStatus, detail string) (int64, error) {
	res, err := db.Exec(`INSERT INTO deployment_history (deployment_id, old_status, new_status, detail) VALUES (?, ?, ?, ?)`,
		deploymentID, oldStatus, newStatus, detail)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) ListDeploymentHistory(deploymentID int64) ([]DeploymentHistory, error) {
	rows, err := db.Query(`SELECT id, deployment_id, old_status, new_status, detail, created_at
		FROM deployment_history WHERE deployment_id = ? ORDER BY id`, deploymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hist []DeploymentHistory
	for rows.Next() {
		var h DeploymentHistory
		if err := rows.Scan(&h.ID, &h.DeploymentID, &h.OldStatus, &h.NewStatus, &h.Detail, &h.CreatedAt); err != nil {
			return nil, err
		}
		hist = append(hist, h)
	}
	return hist, rows.Err()
}
