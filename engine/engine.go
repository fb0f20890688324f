package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fleetedge/assign"
	"fleetedge/config"
	"fleetedge/fleet"
	"fleetedge/remote"
	"fleetedge/store"
	"fleetedge/syncq"
)

// RemoteAPI is the slice of the authority client the engine needs.
type RemoteAPI interface {
	CreateBooking(ctx context.Context, b *fleet.Booking, idempotencyKey string) (*remote.BookingRecord, error)
	UpdateBooking(ctx context.Context, b *fleet.Booking, idempotencyKey string) (*remote.BookingRecord, error)
	CancelBooking(ctx context.Context, ref, reason, idempotencyKey string) error
	CreateDeployment(ctx context.Context, d *fleet.Deployment, idempotencyKey string) (*remote.DeploymentRecord, error)
	UpdateDeployment(ctx context.Context, d *fleet.Deployment, idempotencyKey string) (*remote.DeploymentRecord, error)
	UpdateTracking(ctx context.Context, uuid string, snap *fleet.TrackingSnapshot, idempotencyKey string) error
	ListVehicles(ctx context.Context) ([]fleet.Vehicle, error)
}

// ReplayTrigger requests an immediate sync queue drain.
type ReplayTrigger interface {
	TriggerReplay()
}

// Engine orchestrates booking and deployment lifecycles. Every mutation
// is validated locally, pushed to the remote authority, and absorbed
// into the durable sync queue when the authority is unreachable. The
// local store always reflects the accepted state; pendingSync marks
// records the authority hasn't confirmed yet.
type Engine struct {
	cfg      *config.Config
	db       *store.DB
	remote   RemoteAPI
	replayer ReplayTrigger

	Events *EventBus

	// now is injected so lifecycle tests control the clock.
	now func() time.Time
}

// New creates an Engine. A nil now defaults to time.Now.
func New(cfg *config.Config, db *store.DB, api RemoteAPI, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		cfg:    cfg,
		db:     db,
		remote: api,
		Events: NewEventBus(),
		now:    now,
	}
	e.Events.SubscribeTypes(e.handleSyncDelivered, EventSyncDelivered)
	return e
}

// SetReplayer attaches the sync replayer so the engine can nudge it.
func (e *Engine) SetReplayer(r ReplayTrigger) { e.replayer = r }

// SyncEmitter returns the emitter the replayer should report through.
func (e *Engine) SyncEmitter() syncq.EventEmitter { return &syncEmitter{bus: e.Events} }

// DB exposes the store for read paths (listings, queue inspection).
func (e *Engine) DB() *store.DB { return e.db }

// TriggerReplay requests an immediate drain of the sync queue.
func (e *Engine) TriggerReplay() {
	if e.replayer != nil {
		e.replayer.TriggerReplay()
	}
}

func idemKey(entityID, op string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", entityID, op, now.UnixNano())
}

// CreateBookingRequest is the input for a new booking.
type CreateBookingRequest struct {
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
	PaymentMode   string         `json:"paymentMode"`
	VehicleID     string         `json:"vehicleId,omitempty"`
	PilotID       string         `json:"pilotId,omitempty"`
}

func (req *CreateBookingRequest) validate() error {
	if req.CustomerName == "" {
		return &fleet.ValidationError{Field: "customerName", Message: "required"}
	}
	if req.CustomerPhone == "" {
		return &fleet.ValidationError{Field: "customerPhone", Message: "required"}
	}
	switch req.Type {
	case fleet.BookingTypeAirport, fleet.BookingTypeRental, fleet.BookingTypeSubscription:
	default:
		return &fleet.ValidationError{Field: "type", Message: "must be airport, rental or subscription"}
	}
	if req.Type == fleet.BookingTypeAirport {
		switch req.AirportLeg {
		case fleet.AirportLegPickup, fleet.AirportLegDrop:
		default:
			return &fleet.ValidationError{Field: "airportLeg", Message: "must be pickup or drop"}
		}
		if req.AirportLeg == fleet.AirportLegDrop && req.DropAddress == "" {
			return &fleet.ValidationError{Field: "dropAddress", Message: "required for airport drop"}
		}
	}
	if req.ScheduledAt.IsZero() {
		return &fleet.ValidationError{Field: "scheduledAt", Message: "required"}
	}
	if !req.ScheduledEnd.After(req.ScheduledAt) {
		return &fleet.ValidationError{Field: "scheduledEnd", Message: "must be after scheduledAt"}
	}
	if req.PickupAddress == "" {
		return &fleet.ValidationError{Field: "pickupAddress", Message: "required"}
	}
	if req.EstimatedCost < 0 {
		return &fleet.ValidationError{Field: "estimatedCost", Message: "must not be negative"}
	}
	return nil
}

// CreateBooking validates and stores a new booking. The authority is
// told immediately when reachable; otherwise the create is queued and
// the booking returned with pendingSync set.
func (e *Engine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*fleet.Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := e.now()
	b := &fleet.Booking{
		Ref:           fleet.NewBookingRef(now),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Type:          req.Type,
		AirportLeg:    req.AirportLeg,
		ScheduledAt:   req.ScheduledAt,
		ScheduledEnd:  req.ScheduledEnd,
		PickupAddress: req.PickupAddress,
		DropAddress:   req.DropAddress,
		Pickup:        req.Pickup,
		EstimatedCost: req.EstimatedCost,
		PaymentMode:   req.PaymentMode,
		PaymentStatus: "pending",
		VehicleID:     req.VehicleID,
		PilotID:       req.PilotID,
		Status:        fleet.BookingPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if b.VehicleID != "" || b.PilotID != "" {
		if err := e.checkConflict(b.VehicleID, b.PilotID, b.ScheduledAt, b.ScheduledEnd, b.Ref); err != nil {
			return nil, err
		}
	}

	key := idemKey(b.Ref, store.OpCreate, now)
	rec, err := e.remote.CreateBooking(ctx, b, key)
	switch {
	case err == nil:
		b.ServerRef = rec.Ref
	case remote.IsTransient(err):
		if qerr := e.enqueueBooking(b, store.OpCreate, now, err.Error()); qerr != nil {
			return nil, qerr
		}
	default:
		return nil, err
	}

	id, err := e.db.CreateBooking(b)
	if err != nil {
		return nil, err
	}
	b.ID = id
	e.db.InsertBookingHistory(b.ID, "", string(b.Status), "created")

	e.Events.Emit(Event{Type: EventBookingCreated, Timestamp: now, Payload: BookingCreatedEvent{
		BookingID:   b.ID,
		Ref:         b.Ref,
		Type:        b.Type,
		PendingSync: b.PendingSync,
	}})
	return b, nil
}

// BookingStatusUpdate carries a requested transition plus the fields
// its preconditions consume.
type BookingStatusUpdate struct {
	Status     fleet.BookingStatus `json:"status"`
	VehicleID  string              `json:"vehicleId,omitempty"`
	PilotID    string              `json:"pilotId,omitempty"`
	ActualCost *float64            `json:"actualCost,omitempty"`
}

// UpdateBookingStatus applies a lifecycle transition to a booking.
func (e *Engine) UpdateBookingStatus(ctx context.Context, ref string, upd BookingStatusUpdate) (*fleet.Booking, error) {
	b, err := e.db.GetBookingByRef(ref)
	if err != nil {
		return nil, err
	}
	now := e.now()

	if upd.VehicleID != "" {
		b.VehicleID = upd.VehicleID
	}
	if upd.PilotID != "" {
		b.PilotID = upd.PilotID
	}
	if upd.ActualCost != nil {
		b.ActualCost = upd.ActualCost
	}

	if upd.Status == fleet.BookingAssigned {
		if err := e.checkConflict(b.VehicleID, b.PilotID, b.ScheduledAt, b.ScheduledEnd, b.Ref); err != nil {
			return nil, err
		}
	}

	old := b.Status
	if err := fleet.TransitionBooking(b, upd.Status, now); err != nil {
		return nil, err
	}
	if err := e.pushBooking(ctx, b, store.OpUpdate, now); err != nil {
		return nil, err
	}
	if err := e.db.UpdateBooking(b); err != nil {
		return nil, err
	}
	detail := ""
	if upd.Status == fleet.BookingAssigned {
		detail = "vehicle " + b.VehicleID
	}
	e.db.InsertBookingHistory(b.ID, string(old), string(b.Status), detail)

	e.Events.Emit(Event{Type: EventBookingStatusChanged, Timestamp: now, Payload: BookingStatusChangedEvent{
		BookingID: b.ID,
		Ref:       b.Ref,
		OldStatus: string(old),
		NewStatus: string(b.Status),
	}})
	return b, nil
}

// CancelBooking cancels a booking with a reason. The reason must be
// substantive; "na" doesn't help the next operator.
func (e *Engine) CancelBooking(ctx context.Context, ref, reason string) (*fleet.Booking, error) {
	b, err := e.db.GetBookingByRef(ref)
	if err != nil {
		return nil, err
	}
	now := e.now()

	b.CancellationReason = reason
	old := b.Status
	if err := fleet.TransitionBooking(b, fleet.BookingCancelled, now); err != nil {
		return nil, err
	}
	if err := e.pushBooking(ctx, b, store.OpDelete, now); err != nil {
		return nil, err
	}
	if err := e.db.UpdateBooking(b); err != nil {
		return nil, err
	}
	e.db.InsertBookingHistory(b.ID, string(old), string(b.Status), reason)

	e.Events.Emit(Event{Type: EventBookingStatusChanged, Timestamp: now, Payload: BookingStatusChangedEvent{
		BookingID: b.ID,
		Ref:       b.Ref,
		OldStatus: string(old),
		NewStatus: string(b.Status),
	}})
	return b, nil
}

// RateBooking attaches a rating and feedback to a completed booking.
func (e *Engine) RateBooking(ctx context.Context, ref string, rating int, feedback string) (*fleet.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, &fleet.ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	b, err := e.db.GetBookingByRef(ref)
	if err != nil {
		return nil, err
	}
	if b.Status != fleet.BookingCompleted {
		return nil, &fleet.ValidationError{Field: "rating", Message: "only a completed booking can be rated"}
	}
	now := e.now()
	b.Rating = &rating
	b.Feedback = feedback
	b.UpdatedAt = now

	if err := e.pushBooking(ctx, b, store.OpUpdate, now); err != nil {
		return nil, err
	}
	if err := e.db.UpdateBooking(b); err != nil {
		return nil, err
	}
	return b, nil
}

// pushBooking delivers the booking's current state to the authority, or
// queues it. Terminal states supersede anything still queued for the
// same booking: the stale items are dropped so a replay can't resurrect
// an earlier status.
func (e *Engine) pushBooking(ctx context.Context, b *fleet.Booking, op string, now time.Time) error {
	if fleet.BookingStatusTerminal(b.Status) {
		n, err := e.db.DropPendingForEntity(store.EntityBooking, b.Ref)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("booking %s: dropped %d superseded sync items", b.Ref, n)
		}
		if b.ServerRef == "" {
			// The create never reached the authority; queue the final
			// snapshot as a create instead of addressing a record that
			// doesn't exist remotely.
			return e.enqueueBooking(b, store.OpCreate, now, "create not yet delivered")
		}
	} else {
		pending, err := e.db.PendingCountForEntity(store.EntityBooking, b.Ref)
		if err != nil {
			return err
		}
		if pending > 0 {
			// Earlier mutations are still queued; this one must line up
			// behind them to keep per-booking FIFO order.
			return e.enqueueBooking(b, op, now, "earlier mutations still queued")
		}
	}

	key := idemKey(b.Ref, op, now)
	var err error
	if op == store.OpDelete {
		err = e.remote.CancelBooking(ctx, b.Ref, b.CancellationReason, key)
	} else {
		_, err = e.remote.UpdateBooking(ctx, b, key)
	}
	if err == nil {
		return nil
	}
	if !remote.IsTransient(err) {
		return err
	}
	return e.enqueueBooking(b, op, now, err.Error())
}

func (e *Engine) enqueueBooking(b *fleet.Booking, op string, now time.Time, reason string) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if _, err := e.db.EnqueueSync(idemKey(b.Ref, op, now), store.EntityBooking, b.Ref, op, payload, now); err != nil {
		return err
	}
	b.PendingSync = true
	log.Printf("booking %s %s queued for sync (%s)", b.Ref, op, reason)
	return nil
}

// CreateDeploymentRequest is the input for a new deployment.
type CreateDeploymentRequest struct {
	VehicleID        string         `json:"vehicleId"`
	PilotID          string         `json:"pilotId"`
	StartTime        time.Time      `json:"startTime"`
	EstimatedEndTime time.Time      `json:"estimatedEndTime"`
	StartLocation    fleet.GeoPoint `json:"startLocation"`
	Purpose          string         `json:"purpose"`
}

func (req *CreateDeploymentRequest) validate() error {
	if req.VehicleID == "" {
		return &fleet.ValidationError{Field: "vehicleId", Message: "required"}
	}
	if req.PilotID == "" {
		return &fleet.ValidationError{Field: "pilotId", Message: "required"}
	}
	if req.StartTime.IsZero() {
		return &fleet.ValidationError{Field: "startTime", Message: "required"}
	}
	if !req.EstimatedEndTime.After(req.StartTime) {
		return &fleet.ValidationError{Field: "estimatedEndTime", Message: "must be after startTime"}
	}
	return nil
}

// CreateDeployment validates and stores a new deployment. The proposed
// window is checked against every active booking and deployment before
// anything is written.
func (e *Engine) CreateDeployment(ctx context.Context, req CreateDeploymentRequest) (*fleet.Deployment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := e.now()

	if err := e.checkConflict(req.VehicleID, req.PilotID, req.StartTime, req.EstimatedEndTime, ""); err != nil {
		return nil, err
	}

	d := &fleet.Deployment{
		UUID:             uuid.New().String(),
		VehicleID:        req.VehicleID,
		PilotID:          req.PilotID,
		StartTime:        req.StartTime,
		EstimatedEndTime: req.EstimatedEndTime,
		StartLocation:    req.StartLocation,
		Purpose:          req.Purpose,
		Status:           fleet.DeploymentScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	key := idemKey(d.UUID, store.OpCreate, now)
	_, err := e.remote.CreateDeployment(ctx, d, key)
	switch {
	case err == nil:
	case remote.IsTransient(err):
		if qerr := e.enqueueDeployment(d, store.OpCreate, now, err.Error()); qerr != nil {
			return nil, qerr
		}
	default:
		return nil, err
	}

	id, err := e.db.CreateDeployment(d)
	if err != nil {
		return nil, err
	}
	d.ID = id
	e.db.InsertDeploymentHistory(d.ID, "", string(d.Status), "created")

	e.Events.Emit(Event{Type: EventDeploymentCreated, Timestamp: now, Payload: DeploymentCreatedEvent{
		DeploymentID: d.ID,
		UUID:         d.UUID,
		VehicleID:    d.VehicleID,
		PilotID:      d.PilotID,
		PendingSync:  d.PendingSync,
	}})
	return d, nil
}

// StartDeployment moves a scheduled deployment into progress.
func (e *Engine) StartDeployment(ctx context.Context, deploymentUUID string) (*fleet.Deployment, error) {
	return e.transitionDeployment(ctx, deploymentUUID, fleet.DeploymentInProgress, "")
}

// CancelDeployment cancels a deployment with a reason.
func (e *Engine) CancelDeployment(ctx context.Context, deploymentUUID, reason string) (*fleet.Deployment, error) {
	return e.transitionDeployment(ctx, deploymentUUID, fleet.DeploymentCancelled, reason)
}

func (e *Engine) transitionDeployment(ctx context.Context, deploymentUUID string, to fleet.DeploymentStatus, reason string) (*fleet.Deployment, error) {
	d, err := e.db.GetDeploymentByUUID(deploymentUUID)
	if err != nil {
		return nil, err
	}
	now := e.now()

	if reason != "" {
		d.CancellationReason = reason
	}
	old := d.Status
	if err := fleet.TransitionDeployment(d, to, now); err != nil {
		return nil, err
	}
	if err := e.pushDeployment(ctx, d, now); err != nil {
		return nil, err
	}
	if err := e.db.UpdateDeployment(d); err != nil {
		return nil, err
	}
	e.db.InsertDeploymentHistory(d.ID, string(old), string(d.Status), reason)

	e.Events.Emit(Event{Type: EventDeploymentStatusChanged, Timestamp: now, Payload: DeploymentStatusChangedEvent{
		DeploymentID: d.ID,
		UUID:         d.UUID,
		OldStatus:    string(old),
		NewStatus:    string(d.Status),
	}})
	return d, nil
}

// CompleteDeploymentRequest carries the completion fields. A missing
// actual end time defaults to now; the final tracking snapshot is
// required unless one was already recorded.
type CompleteDeploymentRequest struct {
	ActualEndTime *time.Time              `json:"actualEndTime,omitempty"`
	EndLocation   *fleet.GeoPoint         `json:"endLocation,omitempty"`
	Tracking      *fleet.TrackingSnapshot `json:"tracking,omitempty"`
}

// CompleteDeployment finishes a deployment.
func (e *Engine) CompleteDeployment(ctx context.Context, deploymentUUID string, req CompleteDeploymentRequest) (*fleet.Deployment, error) {
	d, err := e.db.GetDeploymentByUUID(deploymentUUID)
	if err != nil {
		return nil, err
	}
	now := e.now()

	if req.ActualEndTime != nil {
		d.ActualEndTime = req.ActualEndTime
	} else if d.ActualEndTime == nil {
		t := now
		d.ActualEndTime = &t
	}
	if req.EndLocation != nil {
		d.EndLocation = req.EndLocation
	}
	if req.Tracking != nil {
		if err := validateTracking(req.Tracking); err != nil {
			return nil, err
		}
		d.Tracking = req.Tracking
	}

	old := d.Status
	if err := fleet.TransitionDeployment(d, fleet.DeploymentCompleted, now); err != nil {
		return nil, err
	}
	if err := e.pushDeployment(ctx, d, now); err != nil {
		return nil, err
	}
	if err := e.db.UpdateDeployment(d); err != nil {
		return nil, err
	}
	e.db.InsertDeploymentHistory(d.ID, string(old), string(d.Status), "")

	e.Events.Emit(Event{Type: EventDeploymentStatusChanged, Timestamp: now, Payload: DeploymentStatusChangedEvent{
		DeploymentID: d.ID,
		UUID:         d.UUID,
		OldStatus:    string(old),
		NewStatus:    string(d.Status),
	}})
	return d, nil
}

func validateTracking(snap *fleet.TrackingSnapshot) error {
	if snap.BatteryPct < 0 || snap.BatteryPct > 100 {
		return &fleet.ValidationError{Field: "batteryPct", Message: "must be between 0 and 100"}
	}
	if snap.Location.Lat < -90 || snap.Location.Lat > 90 {
		return &fleet.ValidationError{Field: "location.lat", Message: "must be between -90 and 90"}
	}
	if snap.Location.Lng < -180 || snap.Location.Lng > 180 {
		return &fleet.ValidationError{Field: "location.lng", Message: "must be between -180 and 180"}
	}
	if snap.SpeedKmh < 0 {
		return &fleet.ValidationError{Field: "speedKmh", Message: "must not be negative"}
	}
	return nil
}

// UpdateDeploymentTracking records a realtime tracking snapshot on a
// non-terminal deployment and forwards it to the authority.
func (e *Engine) UpdateDeploymentTracking(ctx context.Context, deploymentUUID string, snap fleet.TrackingSnapshot) (*fleet.Deployment, error) {
	if err := validateTracking(&snap); err != nil {
		return nil, err
	}
	d, err := e.db.GetDeploymentByUUID(deploymentUUID)
	if err != nil {
		return nil, err
	}
	if fleet.DeploymentStatusTerminal(d.Status) {
		return nil, &fleet.TerminalStateError{Status: string(d.Status), To: "tracking"}
	}
	now := e.now()
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = now
	}
	d.Tracking = &snap
	d.UpdatedAt = now

	pending, err := e.db.PendingCountForEntity(store.EntityDeployment, d.UUID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		if err := e.enqueueDeployment(d, store.OpUpdate, now, "earlier mutations still queued"); err != nil {
			return nil, err
		}
	} else if err := e.remote.UpdateTracking(ctx, d.UUID, &snap, idemKey(d.UUID, "tracking", now)); err != nil {
		if !remote.IsTransient(err) {
			return nil, err
		}
		if qerr := e.enqueueDeployment(d, store.OpUpdate, now, err.Error()); qerr != nil {
			return nil, qerr
		}
	}

	if err := e.db.UpdateDeployment(d); err != nil {
		return nil, err
	}

	e.Events.Emit(Event{Type: EventDeploymentTracking, Timestamp: now, Payload: DeploymentTrackingEvent{
		DeploymentID: d.ID,
		UUID:         d.UUID,
		BatteryPct:   snap.BatteryPct,
		SpeedKmh:     snap.SpeedKmh,
	}})
	return d, nil
}

// pushDeployment delivers the deployment's current state to the
// authority, or queues it. Deployment cancellation travels as a full
// state update; the authority sees status=cancelled plus the reason.
func (e *Engine) pushDeployment(ctx context.Context, d *fleet.Deployment, now time.Time) error {
	if fleet.DeploymentStatusTerminal(d.Status) {
		createQueued, err := e.db.HasPendingOp(store.EntityDeployment, d.UUID, store.OpCreate)
		if err != nil {
			return err
		}
		n, err := e.db.DropPendingForEntity(store.EntityDeployment, d.UUID)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("deployment %s: dropped %d superseded sync items", d.UUID, n)
		}
		if createQueued {
			return e.enqueueDeployment(d, store.OpCreate, now, "create not yet delivered")
		}
	} else {
		pending, err := e.db.PendingCountForEntity(store.EntityDeployment, d.UUID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return e.enqueueDeployment(d, store.OpUpdate, now, "earlier mutations still queued")
		}
	}

	_, err := e.remote.UpdateDeployment(ctx, d, idemKey(d.UUID, store.OpUpdate, now))
	if err == nil {
		return nil
	}
	if !remote.IsTransient(err) {
		return err
	}
	return e.enqueueDeployment(d, store.OpUpdate, now, err.Error())
}

func (e *Engine) enqueueDeployment(d *fleet.Deployment, op string, now time.Time, reason string) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if _, err := e.db.EnqueueSync(idemKey(d.UUID, op, now), store.EntityDeployment, d.UUID, op, payload, now); err != nil {
		return err
	}
	d.PendingSync = true
	log.Printf("deployment %s %s queued for sync (%s)", d.UUID, op, reason)
	return nil
}

// SelectCandidates ranks the registry's vehicle pool for a request.
// This is a pure read against the authority; there is no queue fallback
// for it.
func (e *Engine) SelectCandidates(ctx context.Context, req assign.Request) ([]assign.Candidate, error) {
	pool, err := e.remote.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return assign.SelectCandidates(req, pool, e.cfg.Selector, e.now()), nil
}

// checkConflict tests a proposed vehicle/pilot window against every
// active booking and deployment. exclude skips the record being
// modified so it never conflicts with itself.
func (e *Engine) checkConflict(vehicleID, pilotID string, start, end time.Time, exclude string) error {
	bookings, err := e.db.ListActiveBookings()
	if err != nil {
		return err
	}
	deployments, err := e.db.ListActiveDeployments()
	if err != nil {
		return err
	}

	active := make([]assign.ActiveRecord, 0, len(bookings)+len(deployments))
	for _, b := range bookings {
		if b.Ref == exclude || (b.VehicleID == "" && b.PilotID == "") {
			continue
		}
		active = append(active, assign.ActiveRecord{
			ID:        b.Ref,
			VehicleID: b.VehicleID,
			PilotID:   b.PilotID,
			StartTime: b.ScheduledAt,
			EndTime:   b.ScheduledEnd,
		})
	}
	for _, d := range deployments {
		if d.UUID == exclude {
			continue
		}
		active = append(active, assign.ActiveRecord{
			ID:        d.UUID,
			VehicleID: d.VehicleID,
			PilotID:   d.PilotID,
			StartTime: d.StartTime,
			EndTime:   d.EstimatedEndTime,
		})
	}

	result := assign.DetectConflict(assign.Window{
		VehicleID: vehicleID,
		PilotID:   pilotID,
		StartTime: start,
		EndTime:   end,
	}, active)
	if result.Conflict {
		return &fleet.ConflictError{IDs: result.IDs}
	}
	return nil
}

// handleSyncDelivered reconciles a local record after its queued
// mutation reached the authority. pendingSync clears only once nothing
// else is queued for the entity.
func (e *Engine) handleSyncDelivered(evt Event) {
	payload, ok := evt.Payload.(SyncDeliveredEvent)
	if !ok {
		return
	}
	remaining, err := e.db.PendingCountForEntity(payload.EntityType, payload.EntityID)
	if err != nil {
		log.Printf("count pending for %s %s: %v", payload.EntityType, payload.EntityID, err)
		return
	}

	switch payload.EntityType {
	case store.EntityBooking:
		b, err := e.db.GetBookingByRef(payload.EntityID)
		if err != nil {
			log.Printf("reconcile booking %s: %v", payload.EntityID, err)
			return
		}
		changed := false
		if payload.ServerRef != "" && b.ServerRef != payload.ServerRef {
			b.ServerRef = payload.ServerRef
			changed = true
		}
		if remaining == 0 && b.PendingSync {
			b.PendingSync = false
			changed = true
		}
		if changed {
			if err := e.db.UpdateBooking(b); err != nil {
				log.Printf("reconcile booking %s: %v", payload.EntityID, err)
			}
		}
	case store.EntityDeployment:
		d, err := e.db.GetDeploymentByUUID(payload.EntityID)
		if err != nil {
			log.Printf("reconcile deployment %s: %v", payload.EntityID, err)
			return
		}
		if remaining == 0 && d.PendingSync {
			d.PendingSync = false
			if err := e.db.UpdateDeployment(d); err != nil {
				log.Printf("reconcile deployment %s: %v", payload.EntityID, err)
			}
		}
	}
}
