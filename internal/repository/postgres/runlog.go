package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
)

type runLogRepository struct {
	*BaseRepository
}

func NewRunLogRepository(base *BaseRepository) repository.RunLogRepository {
	return &runLogRepository{BaseRepository: base}
}

func (r *runLogRepository) Create(ctx context.Context, log *model.RunLog) error {
	query := `
		INSERT INTO run_logs (
			id, trigger_type, started_at, finished_at,
			attempted, sent, skipped, failed, outcome, error_text, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.Trigger,
		log.StartedAt,
		log.FinishedAt,
		log.Attempted,
		log.Sent,
		log.Skipped,
		log.Failed,
		log.Outcome,
		log.ErrorText,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	return nil
}

func (r *runLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.RunLog, error) {
	query := `
		SELECT id, trigger_type, started_at, finished_at,
			   attempted, sent, skipped, failed, outcome, error_text, created_at
		FROM run_logs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var logs []*model.RunLog
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list run logs: %w", err)
	}
	return logs, nil
}

func (r *runLogRepository) Stats(ctx context.Context, trigger model.TriggerType, since time.Time) (*model.RunStats, error) {
	query := `
		SELECT $1::text AS trigger_type,
			   COUNT(*) AS executions,
			   COALESCE(SUM(sent), 0) AS total_sent,
			   COALESCE(SUM(skipped), 0) AS total_skipped,
			   COALESCE(SUM(failed), 0) AS total_failed
		FROM run_logs
		WHERE trigger_type = $1 AND started_at >= $2
	`
	var stats model.RunStats
	if err := r.db.GetContext(ctx, &stats, query, trigger, since); err != nil {
		return nil, fmt.Errorf("failed to get run stats: %w", err)
	}
	return &stats, nil
}

func (r *runLogRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM run_logs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune run logs: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
