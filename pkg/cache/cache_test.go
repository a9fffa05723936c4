package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/viewstore/pkg/cache"
)

func TestGetOrSet(t *testing.T) {
	c := cache.NewCache(100, time.Minute, cache.NewJitterFn(time.Second))

	calls := 0
	setFn := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	v, err := c.GetOrSet("k", setFn)
	require.NoError(t, err)
	require.Equal(t, "value", v)
	require.Equal(t, 1, calls)

	// second call is served from cache
	v, err = c.GetOrSet("k", setFn)
	require.NoError(t, err)
	require.Equal(t, "value", v)
	require.Equal(t, 1, calls)
}

func TestGetOrSet_ErrorsNotCached(t *testing.T) {
	c := cache.NewCache(100, time.Minute, cache.NewJitterFn(time.Second))

	errFailed := errors.New("failed")
	_, err := c.GetOrSet("k", func() (interface{}, error) { return nil, errFailed })
	require.ErrorIs(t, err, errFailed)

	v, err := c.GetOrSet("k", func() (interface{}, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestNoCache(t *testing.T) {
	calls := 0
	for i := 0; i < 3; i++ {
		v, err := cache.NoCache.GetOrSet("k", func() (interface{}, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
		require.Equal(t, calls, v)
	}
	require.Equal(t, 3, calls)
}
