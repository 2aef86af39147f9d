package application

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProcessAll runs work over items with at most limit calls in flight and
// returns the results in input order. The first error wins: no new items
// start after it, in-flight items are left to finish, and ctx is passed
// through unchanged. A limit below 1 is treated as 1.
func ProcessAll[T, R any](ctx context.Context, items []T, limit int, work func(context.Context, T) (R, error)) ([]R, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed bool
	)
	g.SetLimit(limit)

	for i, item := range items {
		mu.Lock()
		stop := failed
		mu.Unlock()
		if stop {
			break
		}
		if err := ctx.Err(); err != nil {
			g.Go(func() error { return err })
			break
		}
		g.Go(func() error {
			// an earlier item may have failed while this one waited for a slot
			mu.Lock()
			stop := failed
			mu.Unlock()
			if stop {
				return nil
			}
			r, err := work(ctx, item)
			if err != nil {
				mu.Lock()
				failed = true
				mu.Unlock()
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
