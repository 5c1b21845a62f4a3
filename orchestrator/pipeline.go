package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result wraps one stage output with its error and input position.
type Result[Out any] struct {
	Value Out
	Err   error
	Index int
}

// Stage is a bounded-concurrency fan-out over a slice of inputs. The
// scoring stage uses it to keep a fixed number of oracle calls in
// flight while isolating each article's failure.
type Stage[In, Out any] struct {
	Name        string
	Concurrency int
	Process     func(ctx context.Context, input In) (Out, error)
}

// RunStage applies the stage's Process to every input, at most
// Concurrency at a time. Results come back in input order; a cancelled
// context surfaces as per-item errors rather than a partial slice.
func RunStage[In, Out any](ctx context.Context, stage Stage[In, Out], inputs []In) []Result[Out] {
	if len(inputs) == 0 {
		return nil
	}

	concurrency := stage.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]Result[Out], len(inputs))

	// Item errors land in results, never in the group, so one bad input
	// cannot short-circuit the rest of the batch.
	var group errgroup.Group
	group.SetLimit(concurrency)

	for i, input := range inputs {
		i, input := i, input
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result[Out]{Err: err, Index: i}
				return nil
			}

			out, err := stage.Process(ctx, input)
			results[i] = Result[Out]{Value: out, Err: err, Index: i}
			return nil
		})
	}

	_ = group.Wait()
	return results
}
