package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
)

type eventRepository struct {
	*BaseRepository
}

func NewEventRepository(base *BaseRepository) repository.EventRepository {
	return &eventRepository{BaseRepository: base}
}

func (r *eventRepository) Upsert(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO events (
			id, external_id, customer_id, service_name,
			start_time, completed_at, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (external_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
			service_name = EXCLUDED.service_name,
			start_time = EXCLUDED.start_time,
			completed_at = EXCLUDED.completed_at,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.ExternalID,
		event.CustomerID,
		event.ServiceName,
		event.StartTime,
		event.CompletedAt,
		event.Status,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Event, error) {
	query := `
		SELECT id, external_id, customer_id, service_name,
			   start_time, completed_at, status, created_at, updated_at
		FROM events
		WHERE external_id = $1
	`
	var event model.Event
	if err := r.db.GetContext(ctx, &event, query, externalID); err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) ListCompletedOn(ctx context.Context, day time.Time) ([]*model.EligibleEvent, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `
		SELECT e.id AS event_id, e.external_id, e.start_time,
			   c.name AS customer_name, c.email AS customer_email
		FROM events e
		JOIN customers c ON c.id = e.customer_id
		WHERE e.status = $1
		  AND e.start_time >= $2
		  AND e.start_time < $3
		ORDER BY e.start_time ASC
	`
	var events []*model.EligibleEvent
	err := r.db.SelectContext(ctx, &events, query, model.EventStatusCompleted, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed events: %w", err)
	}
	return events, nil
}
