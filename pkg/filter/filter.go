// Package filter decides which paths are visible under a named filter. A
// filter id is an opaque string naming a set of path-matching rules; the
// same store may be viewed through different filter ids concurrently.
package filter

import (
	"context"
	"errors"

	"github.com/treeverse/viewstore/pkg/future"
)

var ErrUnknownFilterID = errors.New("unknown filter id")

// Filter is the visibility predicate consumed by the filtered store.
type Filter interface {
	// IsPathFiltered reports whether path is hidden under filterID; true
	// means hidden. The result may resolve synchronously. Implementations
	// must be safe for concurrent calls on independent (path, filterID)
	// pairs, and own any strings they capture beyond the call.
	IsPathFiltered(ctx context.Context, path string, filterID string) *future.Value[bool]
}

// Func adapts a plain predicate into a Filter. The returned futures always
// resolve synchronously.
type Func func(ctx context.Context, path string, filterID string) (bool, error)

func (fn Func) IsPathFiltered(ctx context.Context, path string, filterID string) *future.Value[bool] {
	hidden, err := fn(ctx, path, filterID)
	if err != nil {
		return future.Failed[bool](err)
	}
	return future.Ready(hidden)
}
