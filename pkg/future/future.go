// Package future provides a lazy value: a result that is either already
// resolved or being produced in the background. Resolved values are cheap to
// construct and cheap to poll, which lets synchronous callers keep a fast
// path instead of blocking on work that may not be done yet.
package future

import "context"

// Value holds a result of type T that resolves at most once.
type Value[T any] struct {
	done chan struct{}
	v    T
	err  error
}

// Ready returns a Value that is already resolved to v.
func Ready[T any](v T) *Value[T] {
	f := &Value[T]{done: make(chan struct{}), v: v}
	close(f.done)
	return f
}

// Failed returns a Value that is already resolved to err.
func Failed[T any](err error) *Value[T] {
	f := &Value[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Go runs fn in a new goroutine and returns a Value that resolves when fn
// returns. fn owns every argument it captures; callers must not retain
// references they intend to mutate.
func Go[T any](fn func() (T, error)) *Value[T] {
	f := &Value[T]{done: make(chan struct{})}
	go func() {
		f.v, f.err = fn()
		close(f.done)
	}()
	return f
}

// Ready reports whether the value has resolved. It never blocks.
func (f *Value[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// TryGet returns the resolved result without blocking. ok is false when the
// value has not resolved yet, in which case v and err are zero.
func (f *Value[T]) TryGet() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.v, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Get blocks until the value resolves or ctx is cancelled.
func (f *Value[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.v, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
