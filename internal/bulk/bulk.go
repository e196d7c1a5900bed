// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bulk applies a per-record function across a large collection
// in parallel. Records are independent; the only shared state between
// workers is the durable lookup cache, whose idempotent-overwrite
// contract makes concurrent writes harmless.
package bulk

import (
	"context"
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Map applies fn to every input in parallel using the given number of
// workers and returns outputs in input order. The first error cancels
// the remaining work; results committed to the durable cache by then
// stay valid.
func Map[In, Out any](ctx context.Context, inputs []In, workers int, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	outputs := make([]Out, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range inputs {
		g.Go(func() error {
			out, err := fn(ctx, inputs[i])
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// MapWithProgress is Map with a progress bar written to w. Pass
// io.Discard to silence it.
func MapWithProgress[In, Out any](ctx context.Context, inputs []In, workers int, w io.Writer, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	bar := pb.New(len(inputs))
	bar.SetWriter(w)
	bar.Start()
	defer bar.Finish()

	return Map(ctx, inputs, workers, func(ctx context.Context, in In) (Out, error) {
		out, err := fn(ctx, in)
		bar.Increment()
		return out, err
	})
}
