package filter

import (
	"context"

	"github.com/treeverse/viewstore/pkg/future"
)

// Delayed wraps a Filter so that no future resolves before Release is
// called. It exercises the asynchronous paths of callers that otherwise see
// only synchronous filters.
type Delayed struct {
	inner Filter
	gate  chan struct{}
}

func NewDelayed(inner Filter) *Delayed {
	return &Delayed{inner: inner, gate: make(chan struct{})}
}

// Release lets all pending and future evaluations resolve.
func (d *Delayed) Release() {
	close(d.gate)
}

func (d *Delayed) IsPathFiltered(ctx context.Context, path string, filterID string) *future.Value[bool] {
	return future.Go(func() (bool, error) {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		return d.inner.IsPathFiltered(ctx, path, filterID).Get(ctx)
	})
}
