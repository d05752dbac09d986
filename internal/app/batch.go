package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the result of one request in a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int
	Result *Result
	Err    error
}

// PredictBatch runs reqs with at most workers in flight. Results are
// returned in input order. A failed item does not stop the others; only
// cancellation of ctx does.
func (a *App) PredictBatch(ctx context.Context, reqs []Request, workers int) ([]BatchItem, error) {
	if workers < 1 {
		workers = 1
	}
	items := make([]BatchItem, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.Predict(gctx, req)
			items[i] = BatchItem{Index: i, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
