package mirror

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/source"
	apperrors "github.com/salonloop/notifier/pkg/errors"
	"github.com/salonloop/notifier/pkg/logger"
	"github.com/salonloop/notifier/pkg/metrics"
)

var testMetrics = metrics.New("mirror_test")

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

type fakeSource struct {
	events []source.ExternalEvent
	err    error
}

func (f *fakeSource) VerifyConnection(context.Context) error { return f.err }

func (f *fakeSource) FetchCompletedEvents(context.Context, time.Time) ([]source.ExternalEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeSource) FetchEvent(context.Context, string) (*source.ExternalEvent, error) {
	return nil, errors.New("not implemented")
}

type fakeCustomerRepo struct {
	byExternal map[string]uuid.UUID
	err        error
}

func (f *fakeCustomerRepo) Upsert(_ context.Context, customer *model.Customer) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if id, ok := f.byExternal[customer.ExternalID]; ok {
		return id, nil
	}
	id := uuid.New()
	f.byExternal[customer.ExternalID] = id
	return id, nil
}

func (f *fakeCustomerRepo) GetByExternalID(context.Context, string) (*model.Customer, error) {
	return nil, errors.New("not implemented")
}

type fakeEventRepo struct {
	byExternal map[string]*model.Event
	failFor    map[string]bool
}

func (f *fakeEventRepo) Upsert(_ context.Context, event *model.Event) error {
	if f.failFor[event.ExternalID] {
		return errors.New("insert failed")
	}
	f.byExternal[event.ExternalID] = event
	return nil
}

func (f *fakeEventRepo) GetByExternalID(context.Context, string) (*model.Event, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEventRepo) ListCompletedOn(context.Context, time.Time) ([]*model.EligibleEvent, error) {
	return nil, nil
}

func newTestService(client source.Client) (*Service, *fakeCustomerRepo, *fakeEventRepo) {
	customers := &fakeCustomerRepo{byExternal: make(map[string]uuid.UUID)}
	events := &fakeEventRepo{byExternal: make(map[string]*model.Event), failFor: make(map[string]bool)}
	return NewService(client, customers, events, testLogger(), testMetrics), customers, events
}

func completedEvent(id, customerID string) source.ExternalEvent {
	return source.ExternalEvent{
		ID:            id,
		CustomerID:    customerID,
		CustomerName:  "Dana",
		CustomerEmail: "dana@example.com",
		ServiceName:   "Gel Manicure",
		StartTime:     time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC),
		Completed:     true,
	}
}

func TestRefreshUpsertsCompletedEvents(t *testing.T) {
	client := &fakeSource{events: []source.ExternalEvent{
		completedEvent("apt-1", "cus-1"),
		completedEvent("apt-2", "cus-2"),
	}}
	svc, customers, events := newTestService(client)

	upserted, err := svc.Refresh(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, upserted)
	assert.Len(t, events.byExternal, 2)
	assert.Len(t, customers.byExternal, 2)

	ev := events.byExternal["apt-1"]
	require.NotNil(t, ev)
	assert.Equal(t, model.EventStatusCompleted, ev.Status)
	require.NotNil(t, ev.CompletedAt)
	assert.Equal(t, customers.byExternal["cus-1"], ev.CustomerID)
}

func TestRefreshPropagatesSourceFailure(t *testing.T) {
	client := &fakeSource{err: apperrors.SourceUnavailable("unreachable", errors.New("timeout"))}
	svc, _, events := newTestService(client)

	_, err := svc.Refresh(context.Background(), time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsSourceUnavailable(err))
	assert.Empty(t, events.byExternal)
}

func TestSyncIsIdempotentPerExternalID(t *testing.T) {
	svc, customers, events := newTestService(&fakeSource{})
	ev := completedEvent("apt-1", "cus-1")

	for i := 0; i < 2; i++ {
		upserted, err := svc.Sync(context.Background(), []source.ExternalEvent{ev})
		require.NoError(t, err)
		assert.Equal(t, 1, upserted)
	}
	assert.Len(t, events.byExternal, 1)
	assert.Len(t, customers.byExternal, 1)
}

func TestSyncSkipsFailedRecords(t *testing.T) {
	svc, _, events := newTestService(&fakeSource{})
	events.failFor["apt-2"] = true

	upserted, err := svc.Sync(context.Background(), []source.ExternalEvent{
		completedEvent("apt-1", "cus-1"),
		completedEvent("apt-2", "cus-2"),
		completedEvent("apt-3", "cus-3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, upserted)
	assert.Len(t, events.byExternal, 2)
}

func TestSyncKeysWalkInsByEvent(t *testing.T) {
	svc, customers, _ := newTestService(&fakeSource{})
	ev := completedEvent("apt-1", "")

	_, err := svc.Sync(context.Background(), []source.ExternalEvent{ev})
	require.NoError(t, err)
	_, ok := customers.byExternal["event:apt-1"]
	assert.True(t, ok)
}

func TestSyncScheduledEventHasNoCompletion(t *testing.T) {
	svc, _, events := newTestService(&fakeSource{})
	ev := completedEvent("apt-1", "cus-1")
	ev.Completed = false

	_, err := svc.Sync(context.Background(), []source.ExternalEvent{ev})
	require.NoError(t, err)

	stored := events.byExternal["apt-1"]
	require.NotNil(t, stored)
	assert.Equal(t, model.EventStatusScheduled, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}
