package fleet

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input. The caller can fix the
// request and retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IllegalTransitionError reports a status edge not present in the
// transition table.
type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition: %s -> %s", e.From, e.To)
}

// TerminalStateError reports an attempted transition out of a terminal
// status. It is a stricter form of IllegalTransitionError.
type TerminalStateError struct {
	Status string
	To     string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("status %s is terminal, cannot transition to %s", e.Status, e.To)
}

// PreconditionError reports a missing field required by the requested
// transition (e.g. actualCost before completed).
type PreconditionError struct {
	Field string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("transition precondition not met: %s required", e.Field)
}

// ConflictError reports overlapping vehicle/pilot assignments. IDs names
// the colliding records so callers can surface actionable detail.
type ConflictError struct {
	IDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with active records: %s", strings.Join(e.IDs, ", "))
}

// minCancelReasonLen is the shortest acceptable cancellation reason.
const minCancelReasonLen = 10

// ValidCancelReason reports whether a cancellation reason is long enough
// to be meaningful.
func ValidCancelReason(reason string) bool {
	return len(strings.TrimSpace(reason)) >= minCancelReasonLen
}
