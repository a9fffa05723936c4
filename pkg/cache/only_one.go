package cache

import "sync"

// ChanOnlyOne ensures that only one concurrent computation runs for a given
// key. Concurrent callers for the same key wait for the running computation
// and share its result; sequential callers compute again.
type ChanOnlyOne struct {
	mu       sync.Mutex
	inflight map[interface{}]*computation
}

type computation struct {
	done chan struct{}
	v    interface{}
	err  error
}

func NewChanOnlyOne() *ChanOnlyOne {
	return &ChanOnlyOne{
		inflight: make(map[interface{}]*computation),
	}
}

func (c *ChanOnlyOne) Compute(k interface{}, fn func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if current, ok := c.inflight[k]; ok {
		c.mu.Unlock()
		<-current.done
		return current.v, current.err
	}
	current := &computation{done: make(chan struct{})}
	c.inflight[k] = current
	c.mu.Unlock()

	current.v, current.err = fn()

	c.mu.Lock()
	delete(c.inflight, k)
	c.mu.Unlock()
	close(current.done)
	return current.v, current.err
}
