package model

import "time"

// Status kinds.  Each kind is an independent chain.
const (
	StatusKindOrder      = "ORDER"
	StatusKindBooking    = "BOOKING"
	StatusKindEnrollment = "ENROLLMENT"
	StatusKindPayment    = "PAYMENT"
)

// Status codes used by the seeded chains.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusFulfilled = "FULFILLED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusActive    = "ACTIVE"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// Status is one node of a workflow chain.  PreviousID and NextID link the
// main line; Allowed lists extra target codes reachable from this node.
type Status struct {
	ID         uint64    // statuses.id
	Kind       string    // statuses.kind
	Code       string    // statuses.code
	Name       string    // statuses.name
	PreviousID *uint64   // statuses.previous_id (nullable)
	NextID     *uint64   // statuses.next_id (nullable)
	Allowed    []string  // statuses.allowed (JSON array of codes)
	IsInitial  bool      // statuses.is_initial
	IsFinal    bool      // statuses.is_final
	CreatedAt  time.Time // statuses.created_at
	UpdatedAt  time.Time // statuses.updated_at
}
