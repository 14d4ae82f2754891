package model

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is the mirrored copy of one scheduled occurrence on the booking
// platform. Rows are upserted by ExternalID and never deleted: later
// triggers (the follow-up) need events from previous days.
type Event struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	ExternalID  string      `db:"external_id" json:"external_id"`
	CustomerID  uuid.UUID   `db:"customer_id" json:"customer_id"`
	ServiceName string      `db:"service_name" json:"service_name"`
	StartTime   time.Time   `db:"start_time" json:"start_time"`
	CompletedAt *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// EligibleEvent is an event joined with the customer contact details the
// dispatcher needs. CustomerEmail is empty when the customer has no
// address on file; such events become SKIPPED_INELIGIBLE records.
type EligibleEvent struct {
	EventID       uuid.UUID `db:"event_id"`
	ExternalID    string    `db:"external_id"`
	StartTime     time.Time `db:"start_time"`
	CustomerName  string    `db:"customer_name"`
	CustomerEmail string    `db:"customer_email"`
}
