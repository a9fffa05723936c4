package filter

import (
	"context"
	"sync"

	"github.com/treeverse/viewstore/pkg/future"
)

// StaticFilter hides fixed literal paths per filter id. A filter id with no
// registered paths hides nothing. Used by tests and demos; real deployments
// use GlobFilter.
type StaticFilter struct {
	mu     sync.RWMutex
	hidden map[string]map[string]struct{}
}

func NewStaticFilter() *StaticFilter {
	return &StaticFilter{hidden: make(map[string]map[string]struct{})}
}

// Hide marks paths as hidden under filterID.
func (f *StaticFilter) Hide(filterID string, paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.hidden[filterID]
	if !ok {
		set = make(map[string]struct{})
		f.hidden[filterID] = set
	}
	for _, p := range paths {
		set[p] = struct{}{}
	}
}

func (f *StaticFilter) IsPathFiltered(_ context.Context, path string, filterID string) *future.Value[bool] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, hidden := f.hidden[filterID][path]
	return future.Ready(hidden)
}
