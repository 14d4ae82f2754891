package alert

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonloop/notifier/internal/config"
	"github.com/salonloop/notifier/internal/email"
	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

type recordingDeliverer struct {
	recipients []string
	kinds      []email.TemplateKind
	params     []email.Params
	err        error
}

func (d *recordingDeliverer) Send(_ context.Context, recipient string, kind email.TemplateKind, params email.Params) error {
	d.recipients = append(d.recipients, recipient)
	d.kinds = append(d.kinds, kind)
	d.params = append(d.params, params)
	return d.err
}

func TestNotifyOperatorSendsAlertEmail(t *testing.T) {
	deliverer := &recordingDeliverer{}
	notifier := NewEmailNotifier(config.AlertConfig{
		Enabled:       true,
		OperatorEmail: "owner@example.com",
	}, deliverer, testLogger())

	err := notifier.NotifyOperator(context.Background(), "[CRITICAL] same_day notification run", "details")
	require.NoError(t, err)

	require.Len(t, deliverer.recipients, 1)
	assert.Equal(t, "owner@example.com", deliverer.recipients[0])
	assert.Equal(t, email.TemplateAlert, deliverer.kinds[0])
	assert.Equal(t, "[CRITICAL] same_day notification run", deliverer.params[0].Subject)
	assert.Equal(t, "details", deliverer.params[0].Body)
}

func TestNotifyOperatorDisabledDropsSilently(t *testing.T) {
	deliverer := &recordingDeliverer{}
	notifier := NewEmailNotifier(config.AlertConfig{Enabled: false, OperatorEmail: "owner@example.com"}, deliverer, testLogger())

	err := notifier.NotifyOperator(context.Background(), "subject", "body")
	require.NoError(t, err)
	assert.Empty(t, deliverer.recipients)
}

func TestNotifyOperatorMissingAddressDropsSilently(t *testing.T) {
	deliverer := &recordingDeliverer{}
	notifier := NewEmailNotifier(config.AlertConfig{Enabled: true}, deliverer, testLogger())

	err := notifier.NotifyOperator(context.Background(), "subject", "body")
	require.NoError(t, err)
	assert.Empty(t, deliverer.recipients)
}

func TestNotifyOperatorPropagatesSendFailure(t *testing.T) {
	deliverer := &recordingDeliverer{err: errors.New("smtp down")}
	notifier := NewEmailNotifier(config.AlertConfig{Enabled: true, OperatorEmail: "owner@example.com"}, deliverer, testLogger())

	err := notifier.NotifyOperator(context.Background(), "subject", "body")
	assert.Error(t, err)
}

func TestFormatRunSummary(t *testing.T) {
	body := FormatRunSummary(model.RunSummary{
		Trigger:   model.TriggerSameDay,
		AsOf:      time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
		Attempted: 5,
		Sent:      4,
		Failed:    1,
		Outcome:   model.RunOutcomeWithErrors,
		Duration:  1500 * time.Millisecond,
	})

	assert.Contains(t, body, "Trigger: same_day")
	assert.Contains(t, body, "Sent: 4")
	assert.Contains(t, body, "Failed: 1")
	assert.Contains(t, body, "Outcome: completed_with_errors")
	assert.NotContains(t, body, "Abort reason")
}

func TestFormatRunSummaryIncludesAbortReason(t *testing.T) {
	body := FormatRunSummary(model.RunSummary{
		Trigger:  model.TriggerFollowUp,
		Outcome:  model.RunOutcomeAborted,
		AbortErr: errors.New("booking platform unreachable"),
	})
	assert.Contains(t, body, "Abort reason: booking platform unreachable")
}
