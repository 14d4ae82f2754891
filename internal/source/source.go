package source

import (
	"context"
	"time"
)

// ExternalEvent is one occurrence as reported by the booking platform,
// flattened to what the mirror needs. CustomerEmail may be empty.
type ExternalEvent struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	ServiceName   string    `json:"service_name"`
	StartTime     time.Time `json:"start_time"`
	Completed     bool      `json:"completed"`
}

// Client reads event data from the booking platform. Implementations
// surface every transport or auth failure as a SourceUnavailable error;
// retrying is the caller's policy, not the client's.
type Client interface {
	VerifyConnection(ctx context.Context) error
	FetchCompletedEvents(ctx context.Context, day time.Time) ([]ExternalEvent, error)
	FetchEvent(ctx context.Context, id string) (*ExternalEvent, error)
}
