package model

import (
	"time"

	"github.com/google/uuid"
)

// TriggerType identifies which relative-time notification a record belongs
// to. One record may exist per (event, trigger) pair.
type TriggerType string

const (
	TriggerSameDay  TriggerType = "same_day"
	TriggerFollowUp TriggerType = "follow_up"
)

func (t TriggerType) Valid() bool {
	return t == TriggerSameDay || t == TriggerFollowUp
}

// NeedsToken reports whether records of this trigger carry a feedback
// token. Only the follow-up email embeds a feedback link.
func (t TriggerType) NeedsToken() bool {
	return t == TriggerFollowUp
}

type NotificationStatus string

const (
	NotificationStatusPending           NotificationStatus = "pending"
	NotificationStatusSending           NotificationStatus = "sending"
	NotificationStatusSent              NotificationStatus = "sent"
	NotificationStatusRetryScheduled    NotificationStatus = "retry_scheduled"
	NotificationStatusFailedPermanent   NotificationStatus = "failed_permanent"
	NotificationStatusSkippedDuplicate  NotificationStatus = "skipped_duplicate"
	NotificationStatusSkippedIneligible NotificationStatus = "skipped_ineligible"
)

// Terminal reports whether no further transition may leave this status.
func (s NotificationStatus) Terminal() bool {
	switch s {
	case NotificationStatusSent,
		NotificationStatusFailedPermanent,
		NotificationStatusSkippedDuplicate,
		NotificationStatusSkippedIneligible:
		return true
	}
	return false
}

// NotificationRecord is one row of the notification ledger: the single
// durable intent to notify a customer for one (event, trigger) pair. The
// unique index on (event_id, trigger_type) is the deduplication guarantee;
// state transitions are applied only by the dispatch engine.
type NotificationRecord struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	EventID       uuid.UUID          `db:"event_id" json:"event_id"`
	Trigger       TriggerType        `db:"trigger_type" json:"trigger_type"`
	Recipient     string             `db:"recipient" json:"recipient,omitempty"`
	Status        NotificationStatus `db:"status" json:"status"`
	AttemptCount  int                `db:"attempt_count" json:"attempt_count"`
	LastAttemptAt *time.Time         `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	LastError     *string            `db:"last_error" json:"last_error,omitempty"`
	FeedbackToken *uuid.UUID         `db:"feedback_token" json:"feedback_token,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`

	// CustomerName is joined in for personalization when listing
	// dispatchable records; it is never written back.
	CustomerName string `db:"customer_name" json:"-"`
}

// Dispatchable reports whether a run may attempt this record.
func (n *NotificationRecord) Dispatchable(maxAttempts int) bool {
	if n.Status != NotificationStatusPending && n.Status != NotificationStatusRetryScheduled {
		return false
	}
	return n.AttemptCount < maxAttempts
}

// ApplySuccess transitions SENDING -> SENT.
func (n *NotificationRecord) ApplySuccess(at time.Time) {
	n.Status = NotificationStatusSent
	n.LastAttemptAt = &at
	n.LastError = nil
	n.UpdatedAt = at
}

// ApplyFailure transitions SENDING -> RETRY_SCHEDULED while attempts
// remain and the failure is transient, otherwise -> FAILED_PERMANENT.
// AttemptCount already includes the attempt that just failed: claiming a
// record for SENDING is what counts the attempt.
func (n *NotificationRecord) ApplyFailure(transient bool, maxAttempts int, errText string, at time.Time) {
	n.LastAttemptAt = &at
	n.LastError = &errText
	n.UpdatedAt = at

	if transient && n.AttemptCount < maxAttempts {
		n.Status = NotificationStatusRetryScheduled
		return
	}
	n.Status = NotificationStatusFailedPermanent
}
