package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Partition splits items into batches of at most size, preserving input
// order. It is pure: pacing between batches is the pacer's job, so the
// partitioning stays testable without real delays.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// pacer spaces batch starts by a fixed delay to respect the delivery
// service's rate limits. The first wait passes immediately.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(delay time.Duration) *pacer {
	if delay <= 0 {
		return &pacer{}
	}
	return &pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

func (p *pacer) wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
