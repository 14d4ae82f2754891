package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/salonloop/notifier/internal/model"
)

// All repository interfaces in one file
type (
	// CustomerRepository handles the mirrored customer records.
	CustomerRepository interface {
		Upsert(ctx context.Context, customer *model.Customer) (uuid.UUID, error)
		GetByExternalID(ctx context.Context, externalID string) (*model.Customer, error)
	}

	// EventRepository handles the mirrored event records. Events are
	// upserted by external id and never deleted.
	EventRepository interface {
		Upsert(ctx context.Context, event *model.Event) error
		GetByExternalID(ctx context.Context, externalID string) (*model.Event, error)
		// ListCompletedOn returns completed events whose occurrence date
		// (UTC) equals day, joined with customer contact details.
		ListCompletedOn(ctx context.Context, day time.Time) ([]*model.EligibleEvent, error)
	}

	// NotificationRepository is the ledger. The unique index on
	// (event_id, trigger_type) backs every method here.
	NotificationRepository interface {
		// CreateIfAbsent inserts the record unless one already exists for
		// its (event, trigger) pair. Reports whether a row was inserted.
		CreateIfAbsent(ctx context.Context, record *model.NotificationRecord) (bool, error)
		Get(ctx context.Context, eventID uuid.UUID, trigger model.TriggerType) (*model.NotificationRecord, error)
		// ListDispatchable returns PENDING and RETRY_SCHEDULED records of
		// the trigger with attempt_count below maxAttempts.
		ListDispatchable(ctx context.Context, trigger model.TriggerType, maxAttempts int) ([]*model.NotificationRecord, error)
		// ClaimSending transitions the record to SENDING if it is still in
		// a dispatchable state. Reports whether the claim won.
		ClaimSending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
		// Update persists the outcome of an attempt; only rows currently
		// in SENDING are touched.
		Update(ctx context.Context, record *model.NotificationRecord) error
		// RequeueStale counts interrupted SENDING rows older than before
		// as a failed attempt, moving them to RETRY_SCHEDULED or
		// FAILED_PERMANENT per the attempt budget.
		RequeueStale(ctx context.Context, trigger model.TriggerType, before time.Time, maxAttempts int) (int, error)
	}

	// RunLogRepository records one immutable row per invocation.
	RunLogRepository interface {
		Create(ctx context.Context, log *model.RunLog) error
		ListRecent(ctx context.Context, limit int) ([]*model.RunLog, error)
		Stats(ctx context.Context, trigger model.TriggerType, since time.Time) (*model.RunStats, error)
		// PruneBefore deletes rows older than cutoff, for retention.
		PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// AttemptLogRepository is the append-only per-attempt audit trail.
	AttemptLogRepository interface {
		Append(ctx context.Context, log *model.AttemptLog) error
		// PruneBefore deletes rows older than cutoff, for retention.
		PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
