package fleet

import "time"

// bookingTransitions is the authoritative booking status graph. Both the
// local engine and the REST layer consult this table; status strings are
// never compared ad hoc elsewhere.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingAssigned, BookingCancelled},
	BookingAssigned:   {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted, BookingCancelled},
	// terminal
	BookingCompleted: {},
	BookingCancelled: {},
}

// deploymentTransitions is the authoritative deployment status graph.
var deploymentTransitions = map[DeploymentStatus][]DeploymentStatus{
	DeploymentScheduled:  {DeploymentInProgress, DeploymentCancelled},
	DeploymentInProgress: {DeploymentCompleted, DeploymentCancelled},
	// terminal
	DeploymentCompleted: {},
	DeploymentCancelled: {},
}

// BookingStatusTerminal reports whether a booking status permits no
// further transitions.
func BookingStatusTerminal(s BookingStatus) bool {
	return s == BookingCompleted || s == BookingCancelled
}

// DeploymentStatusTerminal reports whether a deployment status permits
// no further transitions.
func DeploymentStatusTerminal(s DeploymentStatus) bool {
	return s == DeploymentCompleted || s == DeploymentCancelled
}

// ValidBookingTransition reports whether from -> to is a legal edge.
func ValidBookingTransition(from, to BookingStatus) bool {
	allowed, ok := bookingTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ValidDeploymentTransition reports whether from -> to is a legal edge.
func ValidDeploymentTransition(from, to DeploymentStatus) bool {
	allowed, ok := deploymentTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionBooking applies a status change to a booking, enforcing the
// transition table and the per-edge preconditions. Fields consumed by a
// precondition (vehicle, actual cost, cancellation reason) must be set on
// the booking before calling. Timestamps are stamped on first entry into
// a state and never overwritten.
func TransitionBooking(b *Booking, to BookingStatus, now time.Time) error {
	from := b.Status
	if BookingStatusTerminal(from) {
		return &TerminalStateError{Status: string(from), To: string(to)}
	}
	if !ValidBookingTransition(from, to) {
		return &IllegalTransitionError{From: string(from), To: string(to)}
	}

	switch to {
	case BookingAssigned:
		if b.VehicleID == "" {
			return &PreconditionError{Field: "vehicleId"}
		}
	case BookingCompleted:
		if b.ActualCost == nil {
			return &PreconditionError{Field: "actualCost"}
		}
	case BookingCancelled:
		if !ValidCancelReason(b.CancellationReason) {
			return &PreconditionError{Field: "cancellationReason"}
		}
	}

	b.Status = to
	b.UpdatedAt = now
	switch to {
	case BookingCompleted:
		if b.CompletedAt == nil {
			t := now
			b.CompletedAt = &t
		}
	case BookingCancelled:
		if b.CancelledAt == nil {
			t := now
			b.CancelledAt = &t
		}
	}
	return nil
}

// TransitionDeployment applies a status change to a deployment, enforcing
// the transition table and the per-edge preconditions. Completing a
// deployment requires the actual end time and a final tracking snapshot
// to already be set; cancelling requires a reason.
func TransitionDeployment(d *Deployment, to DeploymentStatus, now time.Time) error {
	from := d.Status
	if DeploymentStatusTerminal(from) {
		return &TerminalStateError{Status: string(from), To: string(to)}
	}
	if !ValidDeploymentTransition(from, to) {
		return &IllegalTransitionError{From: string(from), To: string(to)}
	}

	switch to {
	case DeploymentCompleted:
		if d.ActualEndTime == nil {
			return &PreconditionError{Field: "actualEndTime"}
		}
		if d.Tracking == nil {
			return &PreconditionError{Field: "tracking"}
		}
	case DeploymentCancelled:
		if !ValidCancelReason(d.CancellationReason) {
			return &PreconditionError{Field: "cancellationReason"}
		}
	}

	d.Status = to
	d.UpdatedAt = now
	switch to {
	case DeploymentCompleted:
		if d.CompletedAt == nil {
			t := now
			d.CompletedAt = &t
		}
	case DeploymentCancelled:
		if d.CancelledAt == nil {
			t := now
			d.CancelledAt = &t
		}
	}
	return nil
}
