// Package pagination splits identifier lists into fixed-size batches and
// fetches each batch concurrently.
//
// A crawl processes batches strictly one after another. Inside a batch every
// identifier gets its own goroutine, and FetchBatch does not return until all
// of them have finished, so no fetch outlives its batch.
//
// Example usage:
//
//	pages, err := pagination.Paginate(codes, 50)
//	if err != nil {
//		return err
//	}
//	for _, page := range pages {
//		rows, err := pagination.FetchBatch(ctx, page, fetchOne)
//		if err != nil {
//			return err // whole batch aborted
//		}
//		// stage rows
//	}
//
// The batch fetcher:
//   - Launches one goroutine per identifier
//   - Waits for every goroutine before returning
//   - Aborts the batch on the first error and cancels the siblings
//   - Returns results in input order
package pagination
