package store

import (
	"database/sql"

	"fleetedge/fleet"
)

const bookingCols = `id, ref, server_ref, customer_name, customer_phone, booking_type, airport_leg,
	scheduled_at, scheduled_end, pickup_address, drop_address, pickup_lat, pickup_lng,
	estimated_cost, actual_cost, payment_mode, payment_status, vehicle_id, pilot_id,
	status, rating, feedback, cancellation_reason, pending_sync,
	created_at, updated_at, completed_at, cancelled_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*fleet.Booking, error) {
	b := &fleet.Booking{}
	var scheduledAt, scheduledEnd, createdAt, updatedAt string
	var actualCost sql.NullFloat64
	var rating sql.NullInt64
	var completedAt, cancelledAt sql.NullString

	err := row.Scan(&b.ID, &b.Ref, &b.ServerRef, &b.CustomerName, &b.CustomerPhone, &b.Type, &b.AirportLeg,
		&scheduledAt, &scheduledEnd, &b.PickupAddress, &b.DropAddress, &b.Pickup.Lat, &b.Pickup.Lng,
		&b.EstimatedCost, &actualCost, &b.PaymentMode, &b.PaymentStatus, &b.VehicleID, &b.PilotID,
		&b.Status, &rating, &b.Feedback, &b.CancellationReason, &b.PendingSync,
		&createdAt, &updatedAt, &completedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}

	b.ScheduledAt = scanTime(scheduledAt)
	b.ScheduledEnd = scanTime(scheduledEnd)
	b.CreatedAt = scanTime(createdAt)
	b.UpdatedAt = scanTime(updatedAt)
	b.CompletedAt = scanTimePtr(completedAt)
	b.CancelledAt = scanTimePtr(cancelledAt)
	if actualCost.Valid {
		b.ActualCost = &actualCost.Float64
	}
	if rating.Valid {
		r := int(rating.Int64)
		b.Rating = &r
	}
	return b, nil
}

// CreateBooking inserts a booking and returns its row ID.
func (db *DB) CreateBooking(b *fleet.Booking) (int64, error) {
	var actualCost interface{}
	if b.ActualCost != nil {
		actualCost = *b.ActualCost
	}
	res, err := db.Exec(`
		INSERT INTO bookings (ref, server_ref, customer_name, customer_phone, booking_type, airport_leg,
			scheduled_at, scheduled_end, pickup_address, drop_address, pickup_lat, pickup_lng,
			estimated_cost, actual_cost, payment_mode, payment_status, vehicle_id, pilot_id,
			status, feedback, cancellation_reason, pending_sync, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Ref, b.ServerRef, b.CustomerName, b.CustomerPhone, b.Type, b.AirportLeg,
		fmtTime(b.ScheduledAt), fmtTime(b.ScheduledEnd), b.PickupAddress, b.DropAddress, b.Pickup.Lat, b.Pickup.Lng,
		b.EstimatedCost, actualCost, b.PaymentMode, b.PaymentStatus, b.VehicleID, b.PilotID,
		b.Status, b.Feedback, b.CancellationReason, b.PendingSync, fmtTime(b.CreatedAt), fmtTime(b.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateBooking rewrites all mutable booking fields.
func (db *DB) UpdateBooking(b *fleet.Booking) error {
	var actualCost interface{}
	if b.ActualCost != nil {
		actualCost = *b.ActualCost
	}
	var rating interface{}
	if b.Rating != nil {
		rating = *b.Rating
	}
	_, err := db.Exec(`
		UPDATE bookings SET server_ref=?, customer_name=?, customer_phone=?, airport_leg=?,
			scheduled_at=?, scheduled_end=?, pickup_address=?, drop_address=?, pickup_lat=?, pickup_lng=?,
			estimated_cost=?, actual_cost=?, payment_mode=?, payment_status=?, vehicle_id=?, pilot_id=?,
			status=?, rating=?, feedback=?, cancellation_reason=?, pending_sync=?,
			updated_at=?, completed_at=?, cancelled_at=?
		WHERE id=?`,
		b.ServerRef, b.CustomerName, b.CustomerPhone, b.AirportLeg,
		fmtTime(b.ScheduledAt), fmtTime(b.ScheduledEnd), b.PickupAddress, b.DropAddress, b.Pickup.Lat, b.Pickup.Lng,
		b.EstimatedCost, actualCost, b.PaymentMode, b.PaymentStatus, b.VehicleID, b.PilotID,
		b.Status, rating, b.Feedback, b.CancellationReason, b.PendingSync,
		fmtTime(b.UpdatedAt), fmtTimePtr(b.CompletedAt), fmtTimePtr(b.CancelledAt),
		b.ID)
	return err
}

func (db *DB) GetBooking(id int64) (*fleet.Booking, error) {
	return scanBooking(db.QueryRow(`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id))
}

func (db *DB) GetBookingByRef(ref string) (*fleet.Booking, error) {
	return scanBooking(db.QueryRow(`SELECT `+bookingCols+` FROM bookings WHERE ref = ?`, ref))
}

// ListBookings returns bookings newest-first, optionally filtered by
// status, with limit/offset pagination.
func (db *DB) ListBookings(status string, limit, offset int) ([]fleet.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + bookingCols + ` FROM bookings`
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

	var bookings []fleet.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListActiveBookings returns bookings in a non-terminal status.
func (db *DB) ListActiveBookings() ([]fleet.Booking, error) {
	rows, err := db.Query(`SELECT ` + bookingCols + ` FROM bookings
		WHERE status NOT IN ('completed', 'cancelled')
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []fleet.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// BookingHistory records a booking status transition.
type BookingHistory struct {
	ID        int64  `json:"id"`
	BookingID int64  `json:"bookingId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Detail    string `json:"detail"`
	CreatedAt string `json:"createdAt"`
}

func (db *DB) InsertBookingHistory(bookingID int64, oldStatus, newStatus, detail string) (int64, error) {
	res, err := db.Exec(`INSERT INTO booking_history (booking_id, old_status, new_status, detail) VALUES (?, ?, ?, ?)`,
		bookingID, oldStatus, newStatus, detail)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) ListBookingHistory(bookingID int64) ([]BookingHistory, error) {
	rows, err := db.Query(`SELECT id, booking_id, old_status, new_status, detail, created_at
		FROM booking_history WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hist []BookingHistory
	for rows.Next() {
		var h BookingHistory
		if err := rows.Scan(&h.ID, &h.BookingID, &h.OldStatus, &h.NewStatus, &h.Detail, &h.CreatedAt); err != nil {
			return nil, err
		}
		hist = append(hist, h)
	}
	return hist, rows.Err()
}
