package model

import (
	"time"

	"github.com/google/uuid"
)

type RunOutcome string

const (
	RunOutcomeCompleted  RunOutcome = "completed"
	RunOutcomeWithErrors RunOutcome = "completed_with_errors"
	RunOutcomeAborted    RunOutcome = "aborted"
)

// RunLog is the immutable audit row written once per trigger invocation.
type RunLog struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	Trigger    TriggerType `db:"trigger_type" json:"trigger_type"`
	StartedAt  time.Time   `db:"started_at" json:"started_at"`
	FinishedAt time.Time   `db:"finished_at" json:"finished_at"`
	Attempted  int         `db:"attempted" json:"attempted"`
	Sent       int         `db:"sent" json:"sent"`
	Skipped    int         `db:"skipped" json:"skipped"`
	Failed     int         `db:"failed" json:"failed"`
	Outcome    RunOutcome  `db:"outcome" json:"outcome"`
	ErrorText  *string     `db:"error_text" json:"error_text,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// RunSummary is the in-memory result of one engine run, before it is
// recorded as a RunLog.
type RunSummary struct {
	Trigger   TriggerType   `json:"trigger_type"`
	AsOf      time.Time     `json:"as_of"`
	Attempted int           `json:"attempted"`
	Sent      int           `json:"sent"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Outcome   RunOutcome    `json:"outcome"`
	Duration  time.Duration `json:"duration"`
	AbortErr  error         `json:"-"`
}

// RunStats aggregates run logs over a trailing window, for the status
// endpoint.
type RunStats struct {
	Trigger     TriggerType `db:"trigger_type" json:"trigger_type"`
	Executions  int         `db:"executions" json:"executions"`
	TotalSent   int         `db:"total_sent" json:"total_sent"`
	TotalSkip   int         `db:"total_skipped" json:"total_skipped"`
	TotalFailed int         `db:"total_failed" json:"total_failed"`
}

// AttemptLog is one append-only row per delivery attempt, kept alongside
// the ledger for per-recipient auditing. Write failures are swallowed.
type AttemptLog struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	EventID   uuid.UUID   `db:"event_id" json:"event_id"`
	Trigger   TriggerType `db:"trigger_type" json:"trigger_type"`
	Recipient string      `db:"recipient" json:"recipient"`
	Status    string      `db:"status" json:"status"`
	ErrorText *string     `db:"error_text" json:"error_text,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
