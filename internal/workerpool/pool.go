// Package workerpool provides the bounded parallel-fetch primitive used
// by FactorEngine and UniverseProvider for I/O-bound ticker batches, per
// spec.md §5: "data fetching uses a bounded worker pool (default 8) over
// ticker batches... a cancellation token propagates through the worker
// pool; in-flight network requests are allowed to complete (idempotent)
// but no further work is scheduled."
//
// Grounded on the teacher's goroutine-per-path/channel-collection pattern
// in internal/modules/evaluation/advanced.go (EvaluateMonteCarlo), here
// generalized from a fixed fan-out to a bounded, cancellable group via
// golang.org/x/sync/errgroup.
package workerpool

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultSize is spec.md §5's default bounded worker count.
const DefaultSize = 8

// Run executes fn(item) for every item in items, with at most size
// goroutines in flight at once. If any fn call returns an error, ctx is
// cancelled for the remaining in-flight calls (which are allowed to
// finish, but their results are discarded) and Run returns that error
// once everything currently running has drained. Run itself never
// partially schedules new work after the first error — a partially
// completed batch is the caller's to discard, not Run's.
func Run[T any](ctx context.Context, size int, items []T, fn func(ctx context.Context, item T) error) error {
	if size <= 0 {
		size = DefaultSize
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, item)
		})
	}
	return g.Wait()
}

// RunCollect is Run generalized to return one result per successful item.
// Items whose fn call fails are omitted from the results (the caller
// decides, per spec.md §7, whether a per-ticker failure drops the ticker
// or aborts the batch). The returned errors are the per-item failures in
// item order; a failing item never cancels or aborts the others.
func RunCollect[T any, R any](ctx context.Context, size int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, []error) {
	if size <= 0 {
		size = DefaultSize
	}

	type outcome struct {
		idx int
		res R
		err error
	}
	outcomes := make([]outcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			res, err := fn(gctx, item)
			outcomes[i] = outcome{idx: i, res: res, err: err}
			return nil // per-item errors are reported, not fatal to the fence
		})
	}
	if err := g.Wait(); err != nil {
		// fn never returns a non-nil error to g.Go directly (per-item errors
		// are captured in outcomes instead), so this indicates a bug in fn
		// rather than an expected per-item failure.
		log.Error().Err(err).Msg("workerpool: unexpected fence error")
	}

	results := make([]R, 0, len(items))
	errs := make([]error, 0)
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.res)
	}
	return results, errs
}
