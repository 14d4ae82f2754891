package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerType(t *testing.T) {
	assert.True(t, TriggerSameDay.Valid())
	assert.True(t, TriggerFollowUp.Valid())
	assert.False(t, TriggerType("weekly_digest").Valid())

	assert.False(t, TriggerSameDay.NeedsToken())
	assert.True(t, TriggerFollowUp.NeedsToken())
}

func TestNotificationStatusTerminal(t *testing.T) {
	terminal := []NotificationStatus{
		NotificationStatusSent,
		NotificationStatusFailedPermanent,
		NotificationStatusSkippedDuplicate,
		NotificationStatusSkippedIneligible,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}

	open := []NotificationStatus{
		NotificationStatusPending,
		NotificationStatusSending,
		NotificationStatusRetryScheduled,
	}
	for _, s := range open {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestDispatchable(t *testing.T) {
	record := &NotificationRecord{Status: NotificationStatusPending}
	assert.True(t, record.Dispatchable(3))

	record.Status = NotificationStatusRetryScheduled
	record.AttemptCount = 2
	assert.True(t, record.Dispatchable(3))

	record.AttemptCount = 3
	assert.False(t, record.Dispatchable(3))

	record.AttemptCount = 0
	record.Status = NotificationStatusSent
	assert.False(t, record.Dispatchable(3))
}

func TestApplySuccessClearsLastError(t *testing.T) {
	errText := "451 try again"
	record := &NotificationRecord{
		Status:       NotificationStatusSending,
		AttemptCount: 2,
		LastError:    &errText,
	}

	at := time.Now().UTC()
	record.ApplySuccess(at)

	assert.Equal(t, NotificationStatusSent, record.Status)
	assert.Nil(t, record.LastError)
	assert.Equal(t, at, *record.LastAttemptAt)
	assert.Equal(t, 2, record.AttemptCount)
}

func TestApplyFailure(t *testing.T) {
	at := time.Now().UTC()

	t.Run("transient with budget left schedules retry", func(t *testing.T) {
		record := &NotificationRecord{Status: NotificationStatusSending, AttemptCount: 1}
		record.ApplyFailure(true, 3, "451 try again", at)
		assert.Equal(t, NotificationStatusRetryScheduled, record.Status)
		assert.Equal(t, 1, record.AttemptCount)
		assert.Equal(t, "451 try again", *record.LastError)
	})

	t.Run("transient at budget fails permanently", func(t *testing.T) {
		record := &NotificationRecord{Status: NotificationStatusSending, AttemptCount: 3}
		record.ApplyFailure(true, 3, "451 try again", at)
		assert.Equal(t, NotificationStatusFailedPermanent, record.Status)
	})

	t.Run("permanent error ignores remaining budget", func(t *testing.T) {
		record := &NotificationRecord{Status: NotificationStatusSending, AttemptCount: 1}
		record.ApplyFailure(false, 3, "550 no such user", at)
		assert.Equal(t, NotificationStatusFailedPermanent, record.Status)
	})
}
