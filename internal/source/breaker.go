package source

import (
	"context"
	"errors"
	"time"

	"github.com/salonloop/notifier/pkg/circuitbreaker"
	apperrors "github.com/salonloop/notifier/pkg/errors"
)

type breakerClient struct {
	inner Client
	cb    *circuitbreaker.CircuitBreaker
}

// NewBreakerClient wraps a Client so repeated source failures trip a
// circuit breaker: while open, calls fail fast as SourceUnavailable
// instead of waiting out another timeout against a platform that is
// already known to be down.
func NewBreakerClient(inner Client, cb *circuitbreaker.CircuitBreaker) Client {
	return &breakerClient{inner: inner, cb: cb}
}

func (c *breakerClient) VerifyConnection(ctx context.Context) error {
	return c.execute(func() error { return c.inner.VerifyConnection(ctx) })
}

func (c *breakerClient) FetchCompletedEvents(ctx context.Context, day time.Time) ([]ExternalEvent, error) {
	var events []ExternalEvent
	err := c.execute(func() error {
		var innerErr error
		events, innerErr = c.inner.FetchCompletedEvents(ctx, day)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (c *breakerClient) FetchEvent(ctx context.Context, id string) (*ExternalEvent, error) {
	var event *ExternalEvent
	err := c.execute(func() error {
		var innerErr error
		event, innerErr = c.inner.FetchEvent(ctx, id)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (c *breakerClient) execute(fn func() error) error {
	err := c.cb.Execute(fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return apperrors.SourceUnavailable("booking platform circuit open", err)
	}
	return err
}
