package resolver

import (
	"context"
	"runtime"

	"github.com/hupe1980/featmap/internal/dictionary"
	"github.com/hupe1980/featmap/model"
	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of observations one worker task resolves.
const chunkSize = 256

// Workers normalizes a worker count: n <= 0 means GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ResolveAll resolves every observation against dict in parallel.
//
// All workers read the same dictionary, which must not be modified until
// ResolveAll returns. The result is indexed by ObservationID. The context is
// checked between chunks; on cancellation no partial result is returned.
func ResolveAll(ctx context.Context, obs Observations, dict *dictionary.Dictionary, workers int) ([]Resolution, error) {
	out := make([]Resolution, obs.Len())
	err := parallelChunks(ctx, obs.Len(), workers, func(start, end int) {
		for o := start; o < end; o++ {
			out[o] = Resolve(dict, obs.Diagnoses(model.ObservationID(o)))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveSubset resolves the given observations in parallel. The result is
// aligned with ids.
func ResolveSubset(ctx context.Context, obs Observations, dict *dictionary.Dictionary, ids []model.ObservationID, workers int) ([]Resolution, error) {
	out := make([]Resolution, len(ids))
	err := parallelChunks(ctx, len(ids), workers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = Resolve(dict, obs.Diagnoses(ids[i]))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parallelChunks calls fn over [0, n) split into chunks, using at most
// workers goroutines. Small inputs run on the calling goroutine.
func parallelChunks(ctx context.Context, n, workers int, fn func(start, end int)) error {
	workers = Workers(workers)
	if workers == 1 || n <= chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(start, end)
			return nil
		})
	}

	return g.Wait()
}
