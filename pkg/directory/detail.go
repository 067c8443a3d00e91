package directory

import (
	"context"

	"github.com/Sternrassler/school-directory-crawler/pkg/record"
)

// CrawlDetails fetches the detail record of every NPSN. Responses go through
// ClassifyDetail: 404s yield placeholder rows, other failures are dropped and
// counted. Batches are staged on disk.
func (c *Crawler) CrawlDetails(ctx context.Context, npsns []string) (Result, error) {
	s, err := c.openStaging(ResourceSchoolDetail)
	if err != nil {
		return Result{}, err
	}
	return c.run(ctx, ResourceSchoolDetail, npsns, s, c.fetchDetail)
}

func (c *Crawler) fetchDetail(ctx context.Context, npsn string) (itemResult, error) {
	resp, err := c.fetcher.Get(ctx, DetailRequest(npsn))
	if err != nil {
		return itemResult{}, err
	}

	rec, outcome := ClassifyDetail(resp, npsn, c.logger)
	if rec == nil {
		return itemResult{outcome: outcome}, nil
	}
	return itemResult{records: []record.Record{rec}, outcome: outcome}, nil
}
