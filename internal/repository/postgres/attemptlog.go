package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
)

type attemptLogRepository struct {
	*BaseRepository
}

func NewAttemptLogRepository(base *BaseRepository) repository.AttemptLogRepository {
	return &attemptLogRepository{BaseRepository: base}
}

func (r *attemptLogRepository) Append(ctx context.Context, log *model.AttemptLog) error {
	query := `
		INSERT INTO attempt_logs (
			id, event_id, trigger_type, recipient, status, error_text, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.EventID,
		log.Trigger,
		log.Recipient,
		log.Status,
		log.ErrorText,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append attempt log: %w", err)
	}
	return nil
}

func (r *attemptLogRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attempt_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempt logs: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
