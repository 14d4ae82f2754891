package mirror

import (
	"context"
	"time"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
	"github.com/salonloop/notifier/internal/source"
	"github.com/salonloop/notifier/pkg/logger"
	"github.com/salonloop/notifier/pkg/metrics"
)

// Service maintains the local read-only copy of the booking platform's
// events and customers. It owns every field value in those tables;
// nothing else writes them.
type Service struct {
	client    source.Client
	customers repository.CustomerRepository
	events    repository.EventRepository
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(
	client source.Client,
	customers repository.CustomerRepository,
	events repository.EventRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		client:    client,
		customers: customers,
		events:    events,
		logger:    logger,
		metrics:   metrics,
	}
}

// Refresh fetches completed events for day and upserts them. A source
// read failure propagates as SourceUnavailable and nothing is written;
// retry policy belongs to the next scheduled run.
func (s *Service) Refresh(ctx context.Context, day time.Time) (int, error) {
	start := time.Now()
	defer func() {
		s.metrics.SourceSyncDuration.Observe(time.Since(start).Seconds())
	}()

	sourceEvents, err := s.client.FetchCompletedEvents(ctx, day)
	if err != nil {
		return 0, err
	}
	return s.Sync(ctx, sourceEvents)
}

// Sync upserts the given source events by external id. Re-ingesting an
// event updates its non-key fields without creating duplicates. Records
// that fail to persist are logged and skipped; the rest still land.
func (s *Service) Sync(ctx context.Context, sourceEvents []source.ExternalEvent) (int, error) {
	upserted := 0
	for _, ev := range sourceEvents {
		if err := s.syncOne(ctx, ev); err != nil {
			s.logger.Error(err, "failed to mirror event", "external_id", ev.ID)
			continue
		}
		upserted++
	}
	s.metrics.SourceEventsUpserted.Add(float64(upserted))
	s.logger.Info("event mirror refreshed", "received", len(sourceEvents), "upserted", upserted)
	return upserted, nil
}

func (s *Service) syncOne(ctx context.Context, ev source.ExternalEvent) error {
	customerExternalID := ev.CustomerID
	if customerExternalID == "" {
		// Walk-ins can arrive without a customer record; key them by event
		// so the foreign key still holds.
		customerExternalID = "event:" + ev.ID
	}

	customerID, err := s.customers.Upsert(ctx, &model.Customer{
		ExternalID: customerExternalID,
		Name:       ev.CustomerName,
		Email:      ev.CustomerEmail,
		Phone:      ev.CustomerPhone,
	})
	if err != nil {
		return err
	}

	status := model.EventStatusScheduled
	var completedAt *time.Time
	if ev.Completed {
		status = model.EventStatusCompleted
		t := ev.StartTime
		completedAt = &t
	}

	return s.events.Upsert(ctx, &model.Event{
		ExternalID:  ev.ID,
		CustomerID:  customerID,
		ServiceName: ev.ServiceName,
		StartTime:   ev.StartTime,
		CompletedAt: completedAt,
		Status:      status,
	})
}
