package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut runs one unit of work per element of units in parallel and
// collects the results indexed by input position, so the caller's
// merge order is the input order regardless of completion order.
//
// It uses errgroup.WithContext so that the first failure cancels the
// derived context, causing remaining in-flight units to return early.
// Progress events are emitted per unit; emit may be nil.
func FanOut[T any](
	ctx context.Context,
	stage string,
	units []string,
	emit func(ProgressEvent),
	run func(ctx context.Context, i int) (T, error),
) ([]T, error) {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}

	results := make([]T, len(units))
	g, gctx := errgroup.WithContext(ctx)

	for i, unit := range units {
		emit(ProgressEvent{
			Stage:  stage,
			Unit:   unit,
			Status: ProgressPending,
		})

		g.Go(func() error {
			emit(ProgressEvent{
				Stage:  stage,
				Unit:   unit,
				Status: ProgressWorking,
			})

			out, err := run(gctx, i)
			if err != nil {
				emit(ProgressEvent{
					Stage:   stage,
					Unit:    unit,
					Status:  ProgressFailed,
					Message: err.Error(),
				})
				return err // triggers context cancellation for other goroutines
			}

			results[i] = out
			emit(ProgressEvent{
				Stage:  stage,
				Unit:   unit,
				Status: ProgressComplete,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
