package filter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/gobwas/glob/syntax"
	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/viewstore/pkg/cache"
	"github.com/treeverse/viewstore/pkg/future"
)

const (
	matcherCacheSize   = 100_000
	matcherCacheExpiry = 1 * time.Hour
	matcherCacheJitter = 1 * time.Minute
)

// GlobFilter hides paths that match any glob pattern in the rule set named
// by the filter id. Compiled matchers are cached across calls.
type GlobFilter struct {
	mu       sync.RWMutex
	ruleSets map[string][]string
	matchers cache.Cache
}

// NewGlobFilter builds a filter from filter id to glob patterns. All
// patterns are validated up front; every invalid pattern is reported.
func NewGlobFilter(ruleSets map[string][]string) (*GlobFilter, error) {
	if err := validateRules(ruleSets); err != nil {
		return nil, err
	}
	sets := make(map[string][]string, len(ruleSets))
	for id, patterns := range ruleSets {
		sets[id] = append([]string(nil), patterns...)
	}
	return &GlobFilter{
		ruleSets: sets,
		matchers: cache.NewCache(matcherCacheSize, matcherCacheExpiry, cache.NewJitterFn(matcherCacheJitter)),
	}, nil
}

func validateRules(ruleSets map[string][]string) error {
	var merr *multierror.Error
	for id, patterns := range ruleSets {
		for _, pattern := range patterns {
			if _, err := syntax.Parse(pattern); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("filter %q pattern %q: %w", id, pattern, err))
			}
		}
	}
	return merr.ErrorOrNil()
}

// SetRules replaces the rule set for a filter id.
func (f *GlobFilter) SetRules(filterID string, patterns []string) error {
	if err := validateRules(map[string][]string{filterID: patterns}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ruleSets[filterID] = append([]string(nil), patterns...)
	return nil
}

// IsPathFiltered resolves synchronously: rule matching never does IO. The
// empty filter id names the empty rule set and hides nothing.
func (f *GlobFilter) IsPathFiltered(_ context.Context, path string, filterID string) *future.Value[bool] {
	if filterID == "" {
		return future.Ready(false)
	}
	f.mu.RLock()
	patterns, ok := f.ruleSets[filterID]
	f.mu.RUnlock()
	if !ok {
		return future.Failed[bool](fmt.Errorf("filter %q: %w", filterID, ErrUnknownFilterID))
	}
	for _, pattern := range patterns {
		pattern := pattern
		matcher, err := f.matchers.GetOrSet(pattern, func() (interface{}, error) {
			return glob.Compile(pattern)
		})
		if err != nil {
			return future.Failed[bool](fmt.Errorf("compile pattern %q: %w", pattern, err))
		}
		if matcher.(glob.Glob).Match(path) {
			return future.Ready(true)
		}
	}
	return future.Ready(false)
}
