// Package workpool runs a function over a slice with bounded parallelism
// and returns the results in input order.
//
// A failing item does not stop the batch: its error is recorded on its
// Result. Only an interrupt aborts the batch, either an error wrapping
// services.ErrInterrupted or cancellation of the parent context.
package workpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"icokit/internal/services"
)

// Result pairs the output of one item with its input position.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Failed reports whether the item produced an error.
func (r Result[R]) Failed() bool {
	return r.Err != nil
}

// Option configures Map.
type Option func(*settings)

type settings struct {
	workers int
	onDone  func(done, total int)
}

// Workers bounds the number of items processed at once. Values below one
// fall back to runtime.NumCPU.
func Workers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// OnDone registers a progress callback invoked after every finished item.
// Calls are serialized.
func OnDone(fn func(done, total int)) Option {
	return func(s *settings) { s.onDone = fn }
}

// Map applies fn to every item using a bounded pool. The returned slice has
// one Result per item at the item's index regardless of completion order.
// On interrupt Map returns a nil slice and the interrupt error.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...Option) ([]Result[R], error) {
	cfg := settings{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.NumCPU()
	}

	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	var (
		mu   sync.Mutex
		done int
	)
	finish := func() {
		if cfg.onDone == nil {
			return
		}
		mu.Lock()
		done++
		cfg.onDone(done, len(items))
		mu.Unlock()
	}

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, err := call(gctx, item, fn)
			if err != nil && (services.IsInterrupt(err) || ctx.Err() != nil) {
				return err
			}
			results[i] = Result[R]{Index: i, Value: value, Err: err}
			finish()
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, services.Wrap(services.ErrInterrupted, "workpool", "map", "batch cancelled", ctxErr)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func call[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrItemProcessing, "workpool", "worker", fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	return fn(ctx, item)
}
