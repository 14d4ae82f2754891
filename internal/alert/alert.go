package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/salonloop/notifier/internal/config"
	"github.com/salonloop/notifier/internal/email"
	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/pkg/logger"
)

// Notifier raises out-of-band operator alerts. Best-effort: callers log
// a failure and move on, alerts are never retried.
type Notifier interface {
	NotifyOperator(ctx context.Context, subject, body string) error
}

type emailNotifier struct {
	deliverer email.Deliverer
	operator  string
	enabled   bool
	logger    *logger.Logger
}

func NewEmailNotifier(cfg config.AlertConfig, deliverer email.Deliverer, logger *logger.Logger) Notifier {
	return &emailNotifier{
		deliverer: deliverer,
		operator:  cfg.OperatorEmail,
		enabled:   cfg.Enabled,
		logger:    logger,
	}
}

func (n *emailNotifier) NotifyOperator(ctx context.Context, subject, body string) error {
	if !n.enabled || n.operator == "" {
		n.logger.Debug("operator alerts disabled, dropping alert", "subject", subject)
		return nil
	}

	err := n.deliverer.Send(ctx, n.operator, email.TemplateAlert, email.Params{
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to send operator alert: %w", err)
	}

	n.logger.Info("operator alert sent", "subject", subject)
	return nil
}

// FormatRunSummary renders a run summary for an alert body.
func FormatRunSummary(summary model.RunSummary) string {
	body := fmt.Sprintf(
		"Trigger: %s\nAs of: %s\nAttempted: %d\nSent: %d\nSkipped: %d\nFailed: %d\nOutcome: %s\nDuration: %s",
		summary.Trigger,
		summary.AsOf.Format("2006-01-02 15:04:05"),
		summary.Attempted,
		summary.Sent,
		summary.Skipped,
		summary.Failed,
		summary.Outcome,
		summary.Duration.Round(time.Millisecond),
	)
	if summary.AbortErr != nil {
		body += "\nAbort reason: " + summary.AbortErr.Error()
	}
	return body
}
