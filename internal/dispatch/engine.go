package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/salonloop/notifier/internal/alert"
	"github.com/salonloop/notifier/internal/email"
	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
	apperrors "github.com/salonloop/notifier/pkg/errors"
	"github.com/salonloop/notifier/pkg/logger"
	"github.com/salonloop/notifier/pkg/metrics"
)

// Refresher updates the event mirror for one occurrence day.
type Refresher interface {
	Refresh(ctx context.Context, day time.Time) (int, error)
}

// Config holds the dispatch policy knobs. Injected at construction; the
// engine never consults process-wide state.
type Config struct {
	MaxAttempts       int
	BatchSize         int
	InterBatchDelay   time.Duration
	FollowUpDays      int
	StaleSendingAfter time.Duration
	FeedbackBaseURL   string
}

// Engine owns every NotificationRecord state transition. It selects due
// notifications for a trigger, enforces the (event, trigger) dedup
// invariant, drives the per-record retry state machine and records the
// run outcome.
type Engine struct {
	cfg           Config
	refresher     Refresher
	events        repository.EventRepository
	notifications repository.NotificationRepository
	runs          repository.RunLogRepository
	attempts      repository.AttemptLogRepository
	deliverer     email.Deliverer
	alerts        alert.Notifier
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewEngine(
	cfg Config,
	refresher Refresher,
	events repository.EventRepository,
	notifications repository.NotificationRepository,
	runs repository.RunLogRepository,
	attempts repository.AttemptLogRepository,
	deliverer email.Deliverer,
	alerts alert.Notifier,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.FollowUpDays <= 0 {
		cfg.FollowUpDays = 7
	}
	return &Engine{
		cfg:           cfg,
		refresher:     refresher,
		events:        events,
		notifications: notifications,
		runs:          runs,
		attempts:      attempts,
		deliverer:     deliverer,
		alerts:        alerts,
		logger:        logger,
		metrics:       metrics,
	}
}

// RunTrigger executes one full run for a trigger type. asOf is injected
// by the caller, never defaulted here. Every run resolves to a summary:
// delivery failures stay local to their record, a source failure aborts
// the run before any record is touched. The returned error is non-nil
// only for a systemic abort.
func (e *Engine) RunTrigger(ctx context.Context, trigger model.TriggerType, asOf time.Time) (model.RunSummary, error) {
	start := time.Now()
	summary := model.RunSummary{Trigger: trigger, AsOf: asOf}

	if !trigger.Valid() {
		err := fmt.Errorf("unknown trigger type: %s", trigger)
		return e.abort(ctx, summary, start, err), err
	}

	log := e.logger.WithFields(map[string]interface{}{
		"trigger": string(trigger),
		"as_of":   asOf.Format("2006-01-02"),
	})
	log.Info("starting notification run")

	targetDay := e.occurrenceDay(trigger, asOf)

	if _, err := e.refresher.Refresh(ctx, targetDay); err != nil {
		log.Error(err, "event mirror refresh failed, aborting run")
		return e.abort(ctx, summary, start, err), err
	}

	if e.cfg.StaleSendingAfter > 0 {
		stale, err := e.notifications.RequeueStale(ctx, trigger, asOf.Add(-e.cfg.StaleSendingAfter), e.cfg.MaxAttempts)
		if err != nil {
			log.Error(err, "failed to requeue stale records")
		} else if stale > 0 {
			log.Warn("requeued interrupted records", "count", stale)
		}
	}

	eligible, err := e.events.ListCompletedOn(ctx, targetDay)
	if err != nil {
		log.Error(err, "eligibility query failed, aborting run")
		return e.abort(ctx, summary, start, err), err
	}

	for _, ev := range eligible {
		e.ensureRecord(ctx, trigger, ev, &summary)
	}

	records, err := e.notifications.ListDispatchable(ctx, trigger, e.cfg.MaxAttempts)
	if err != nil {
		log.Error(err, "dispatch selection failed, aborting run")
		return e.abort(ctx, summary, start, err), err
	}

	pace := newPacer(e.cfg.InterBatchDelay)
	for _, batch := range Partition(records, e.cfg.BatchSize) {
		if err := pace.wait(ctx); err != nil {
			log.Warn("run interrupted between batches", "error", err.Error())
			break
		}
		for _, record := range batch {
			e.dispatchOne(ctx, record, &summary)
		}
	}

	summary.Duration = time.Since(start)
	summary.Outcome = model.RunOutcomeCompleted
	if summary.Failed > 0 {
		summary.Outcome = model.RunOutcomeWithErrors
	}

	e.record(ctx, summary, start)
	e.metrics.RunsTotal.WithLabelValues(string(trigger), string(summary.Outcome)).Inc()
	e.metrics.RunDuration.WithLabelValues(string(trigger)).Observe(summary.Duration.Seconds())

	if summary.Failed > 0 {
		e.escalate(ctx, summary)
	}

	log.Info("notification run finished",
		"attempted", summary.Attempted,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"outcome", string(summary.Outcome),
	)
	return summary, nil
}

// occurrenceDay maps a trigger and run time to the occurrence date it
// covers: same-day looks at asOf's date, follow-up at exactly
// FollowUpDays earlier.
func (e *Engine) occurrenceDay(trigger model.TriggerType, asOf time.Time) time.Time {
	if trigger == model.TriggerFollowUp {
		return asOf.AddDate(0, 0, -e.cfg.FollowUpDays)
	}
	return asOf
}

// ensureRecord guarantees a ledger row exists for (event, trigger).
// Events without a usable address get a terminal SKIPPED_INELIGIBLE row
// and are never attempted. When the row already exists and is terminal,
// the duplicate consideration is counted as skipped without a send.
func (e *Engine) ensureRecord(ctx context.Context, trigger model.TriggerType, ev *model.EligibleEvent, summary *model.RunSummary) {
	record := &model.NotificationRecord{
		EventID:   ev.EventID,
		Trigger:   trigger,
		Recipient: ev.CustomerEmail,
		Status:    model.NotificationStatusPending,
	}
	if !email.ValidAddress(ev.CustomerEmail) {
		record.Status = model.NotificationStatusSkippedIneligible
	}
	if trigger.NeedsToken() && record.Status == model.NotificationStatusPending {
		token := uuid.New()
		record.FeedbackToken = &token
	}

	created, err := e.notifications.CreateIfAbsent(ctx, record)
	if err != nil {
		e.logger.Error(err, "failed to create notification record", "event", ev.ExternalID)
		summary.Skipped++
		return
	}

	if created {
		if record.Status == model.NotificationStatusSkippedIneligible {
			summary.Skipped++
			e.metrics.NotificationsSkipped.WithLabelValues(string(trigger), "ineligible").Inc()
			e.logger.Warn("no usable recipient address", "event", ev.ExternalID)
		}
		return
	}

	existing, err := e.notifications.Get(ctx, ev.EventID, trigger)
	if err != nil {
		e.logger.Error(err, "failed to load existing notification record", "event", ev.ExternalID)
		return
	}
	if existing.Status.Terminal() {
		reason := "terminal"
		if existing.Status == model.NotificationStatusSent {
			reason = "duplicate"
		}
		summary.Skipped++
		e.metrics.NotificationsSkipped.WithLabelValues(string(trigger), reason).Inc()
	}
	// Non-terminal records flow through the dispatchable selection.
}

// dispatchOne drives a single record through one attempt of the state
// machine. Errors stay local to the record; the batch continues.
func (e *Engine) dispatchOne(ctx context.Context, record *model.NotificationRecord, summary *model.RunSummary) {
	now := time.Now().UTC()

	claimed, err := e.notifications.ClaimSending(ctx, record.ID, now)
	if err != nil {
		e.logger.Error(err, "failed to claim record", "record", record.ID.String())
		summary.Skipped++
		return
	}
	if !claimed {
		// An overlapping run got there first.
		summary.Skipped++
		return
	}

	summary.Attempted++
	record.Status = model.NotificationStatusSending
	record.AttemptCount++
	record.LastAttemptAt = &now

	timer := prometheus.NewTimer(e.metrics.DeliveryLatency)
	sendErr := e.deliverer.Send(ctx, record.Recipient, e.templateFor(record.Trigger), e.paramsFor(record))
	timer.ObserveDuration()

	finished := time.Now().UTC()
	if sendErr == nil {
		record.ApplySuccess(finished)
		summary.Sent++
		e.metrics.NotificationsSent.WithLabelValues(string(record.Trigger)).Inc()
	} else {
		transient := !apperrors.IsPermanentDelivery(sendErr)
		record.ApplyFailure(transient, e.cfg.MaxAttempts, sendErr.Error(), finished)
		if record.Status == model.NotificationStatusFailedPermanent {
			summary.Failed++
			e.metrics.NotificationsFailed.WithLabelValues(string(record.Trigger)).Inc()
			e.logger.Error(sendErr, "delivery failed permanently",
				"record", record.ID.String(), "attempts", record.AttemptCount)
		} else {
			summary.Skipped++
			e.logger.Warn("delivery failed, will retry next run",
				"record", record.ID.String(), "attempts", record.AttemptCount, "error", sendErr.Error())
		}
	}

	if err := e.notifications.Update(ctx, record); err != nil {
		// A SENT row we cannot persist is the one state that can break the
		// at-most-once guarantee; make it loud.
		e.logger.Error(err, "failed to persist attempt outcome",
			"record", record.ID.String(), "status", string(record.Status))
	}

	e.logAttempt(ctx, record, sendErr)
}

func (e *Engine) templateFor(trigger model.TriggerType) email.TemplateKind {
	if trigger == model.TriggerFollowUp {
		return email.TemplateFollowUp
	}
	return email.TemplateThankYou
}

func (e *Engine) paramsFor(record *model.NotificationRecord) email.Params {
	params := email.Params{CustomerName: record.CustomerName}
	if record.FeedbackToken != nil {
		params.FeedbackLink = fmt.Sprintf("%s?token=%s", e.cfg.FeedbackBaseURL, record.FeedbackToken.String())
	}
	return params
}

// logAttempt appends to the per-attempt audit trail. Failures are logged
// and swallowed: audit writes never affect delivery outcomes.
func (e *Engine) logAttempt(ctx context.Context, record *model.NotificationRecord, sendErr error) {
	entry := &model.AttemptLog{
		EventID:   record.EventID,
		Trigger:   record.Trigger,
		Recipient: record.Recipient,
		Status:    string(record.Status),
	}
	if sendErr != nil {
		text := sendErr.Error()
		entry.ErrorText = &text
	}
	if err := e.attempts.Append(ctx, entry); err != nil {
		e.logger.Error(apperrors.AuditWrite(err), "attempt log write failed", "record", record.ID.String())
	}
}

// abort finalizes a run that could not make eligibility decisions. No
// notification state was touched; the summary and escalation still land.
func (e *Engine) abort(ctx context.Context, summary model.RunSummary, start time.Time, cause error) model.RunSummary {
	summary.Outcome = model.RunOutcomeAborted
	summary.AbortErr = cause
	summary.Duration = time.Since(start)

	e.record(ctx, summary, start)
	e.metrics.RunsTotal.WithLabelValues(string(summary.Trigger), string(summary.Outcome)).Inc()
	e.escalate(ctx, summary)
	return summary
}

// record writes the immutable run log row. Its own failure is logged and
// swallowed so audit problems never mask delivery that already happened.
func (e *Engine) record(ctx context.Context, summary model.RunSummary, start time.Time) {
	log := &model.RunLog{
		Trigger:    summary.Trigger,
		StartedAt:  start.UTC(),
		FinishedAt: start.Add(summary.Duration).UTC(),
		Attempted:  summary.Attempted,
		Sent:       summary.Sent,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
		Outcome:    summary.Outcome,
	}
	if summary.AbortErr != nil {
		text := summary.AbortErr.Error()
		log.ErrorText = &text
	}
	if err := e.runs.Create(ctx, log); err != nil {
		e.logger.Error(apperrors.AuditWrite(err), "run log write failed", "trigger", string(summary.Trigger))
	}
}

// escalate raises a best-effort operator alert; a failed alert is logged,
// never retried.
func (e *Engine) escalate(ctx context.Context, summary model.RunSummary) {
	severity := "SUMMARY"
	if summary.Outcome == model.RunOutcomeAborted {
		severity = "CRITICAL"
	}
	subject := fmt.Sprintf("[%s] %s notification run", severity, summary.Trigger)

	e.metrics.EscalationsTotal.Inc()
	if err := e.alerts.NotifyOperator(ctx, subject, alert.FormatRunSummary(summary)); err != nil {
		e.logger.Error(err, "escalation failed", "trigger", string(summary.Trigger))
	}
}
