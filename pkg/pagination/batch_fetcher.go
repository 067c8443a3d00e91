package pagination

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// FetchFunc fetches the result for a single identifier.
type FetchFunc[ID, R any] func(ctx context.Context, id ID) (R, error)

// FetchBatch runs fetchOne for every identifier in batch concurrently and
// waits for all of them. Results are returned in the order of batch.
//
// If any fetch fails the remaining fetches see a cancelled context, the
// batch's results are discarded and the first error is returned.
func FetchBatch[ID, R any](ctx context.Context, batch []ID, fetchOne FetchFunc[ID, R]) ([]R, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	results := make([]R, len(batch))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range batch {
		g.Go(func() error {
			r, err := fetchOne(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch %v: %w", id, err)
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
