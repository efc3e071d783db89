package vecsearch

import (
	"context"
	"errors"
	"fmt"
)

// Future is a search response that may not have arrived yet.
type Future struct {
	done chan struct{}
	resp *RawResponse
	err  error
}

// RunAsync starts fn on its own goroutine and returns a Future for its result.
func RunAsync(ctx context.Context, fn func(ctx context.Context) (*RawResponse, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = fn(ctx)
	}()
	return f
}

// NewCompletedFuture returns a Future that has already finished.
func NewCompletedFuture(resp *RawResponse, err error) *Future {
	f := &Future{done: make(chan struct{}), resp: resp, err: err}
	close(f.done)
	return f
}

// Done is closed once the response or error is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx ends. A ctx deadline is
// reported as ErrTimeout; the underlying call keeps running.
func (f *Future) Wait(ctx context.Context) (*RawResponse, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		// done may have closed at the same instant
		select {
		case <-f.done:
			return f.resp, f.err
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("wait for search response: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("wait for search response: %w", ctx.Err())
	}
}
