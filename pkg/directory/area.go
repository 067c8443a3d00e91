package directory

import (
	"context"
	"net/http"

	"github.com/Sternrassler/school-directory-crawler/pkg/client"
	"github.com/Sternrassler/school-directory-crawler/pkg/record"
	"github.com/Sternrassler/school-directory-crawler/pkg/staging"
)

// CrawlAreas fetches the subareas of every area code. Each subarea is tagged
// with the code that produced it under parentAreaCode. Results stay in memory.
func (c *Crawler) CrawlAreas(ctx context.Context, areaCodes []string) (Result, error) {
	return c.run(ctx, ResourceSubarea, areaCodes, staging.NewMemory(), c.fetchSubareas)
}

func (c *Crawler) fetchSubareas(ctx context.Context, areaCode string) (itemResult, error) {
	resp, err := c.fetcher.Get(ctx, SubareaRequest(areaCode))
	if err != nil {
		return itemResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return itemResult{}, unexpectedStatus(resp)
	}

	districts, err := parseSubareas(resp.Body)
	if err != nil {
		return itemResult{}, err
	}

	rows := make([]record.Record, 0, len(districts))
	for _, d := range districts {
		rows = append(rows, record.Enrich(d, map[string]any{record.KeyParentAreaCode: areaCode}))
	}
	return itemResult{records: rows, outcome: OutcomeSuccess}, nil
}

func unexpectedStatus(resp *client.Response) error {
	class := client.ErrorClassClient
	if resp.StatusCode >= 500 {
		class = client.ErrorClassServer
	}
	return &client.StatusError{
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		ErrorClass: class,
	}
}
