package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
)

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: base}
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, record *model.NotificationRecord) (bool, error) {
	query := `
		INSERT INTO notifications (
			id, event_id, trigger_type, recipient, status,
			attempt_count, feedback_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (event_id, trigger_type) DO NOTHING
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.EventID,
		record.Trigger,
		record.Recipient,
		record.Status,
		record.AttemptCount,
		record.FeedbackToken,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create notification record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *notificationRepository) Get(ctx context.Context, eventID uuid.UUID, trigger model.TriggerType) (*model.NotificationRecord, error) {
	query := `
		SELECT id, event_id, trigger_type, recipient, status, attempt_count,
			   last_attempt_at, last_error, feedback_token, created_at, updated_at
		FROM notifications
		WHERE event_id = $1 AND trigger_type = $2
	`
	var record model.NotificationRecord
	if err := r.db.GetContext(ctx, &record, query, eventID, trigger); err != nil {
		return nil, fmt.Errorf("failed to get notification record: %w", err)
	}
	return &record, nil
}

func (r *notificationRepository) ListDispatchable(ctx context.Context, trigger model.TriggerType, maxAttempts int) ([]*model.NotificationRecord, error) {
	query := `
		SELECT n.id, n.event_id, n.trigger_type, n.recipient, n.status,
			   n.attempt_count, n.last_attempt_at, n.last_error,
			   n.feedback_token, n.created_at, n.updated_at,
			   c.name AS customer_name
		FROM notifications n
		JOIN events e ON e.id = n.event_id
		JOIN customers c ON c.id = e.customer_id
		WHERE n.trigger_type = $1
		  AND n.status IN ($2, $3)
		  AND n.attempt_count < $4
		ORDER BY n.created_at ASC
	`
	var records []*model.NotificationRecord
	err := r.db.SelectContext(ctx, &records, query,
		trigger,
		model.NotificationStatusPending,
		model.NotificationStatusRetryScheduled,
		maxAttempts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatchable notifications: %w", err)
	}
	return records, nil
}

func (r *notificationRepository) ClaimSending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	// Claiming counts the attempt: attempt_count includes the in-flight
	// send from this point on, so an interrupted process cannot spend
	// more than the budget.
	query := `
		UPDATE notifications
		SET status = $1, attempt_count = attempt_count + 1,
			last_attempt_at = $2, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`
	res, err := r.db.ExecContext(ctx, query,
		model.NotificationStatusSending,
		at,
		id,
		model.NotificationStatusPending,
		model.NotificationStatusRetryScheduled,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *notificationRepository) Update(ctx context.Context, record *model.NotificationRecord) error {
	query := `
		UPDATE notifications
		SET status = $1, attempt_count = $2, last_attempt_at = $3,
			last_error = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		record.Status,
		record.AttemptCount,
		record.LastAttemptAt,
		record.LastError,
		record.UpdatedAt,
		record.ID,
		model.NotificationStatusSending,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification record %s not in sending state", record.ID)
	}
	return nil
}

func (r *notificationRepository) RequeueStale(ctx context.Context, trigger model.TriggerType, before time.Time, maxAttempts int) (int, error) {
	// The interrupted attempt was already counted when it was claimed.
	query := `
		UPDATE notifications
		SET status = CASE WHEN attempt_count < $1 THEN $2 ELSE $3 END,
			last_error = 'attempt interrupted before completion',
			updated_at = $4
		WHERE trigger_type = $5
		  AND status = $6
		  AND last_attempt_at < $7
	`
	res, err := r.db.ExecContext(ctx, query,
		maxAttempts,
		model.NotificationStatusRetryScheduled,
		model.NotificationStatusFailedPermanent,
		time.Now().UTC(),
		trigger,
		model.NotificationStatusSending,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale notifications: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}
