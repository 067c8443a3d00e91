package directory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/school-directory-crawler/pkg/record"
)

// SchoolIDField is the CSV column holding the school identifier.
const SchoolIDField = "NPSN"

// CrawlSchoolLists downloads the school list of every subarea code. Each row
// is tagged with areaCode and with the listing's serverTimestamp from the
// metadata endpoint. Batches are staged on disk.
func (c *Crawler) CrawlSchoolLists(ctx context.Context, subareaCodes []string) (Result, error) {
	s, err := c.openStaging(ResourceSchoolList)
	if err != nil {
		return Result{}, err
	}
	return c.run(ctx, ResourceSchoolList, subareaCodes, s, c.fetchSchoolList)
}

// fetchSchoolList performs both sub-requests of one subarea. Either failing
// fails the item.
func (c *Crawler) fetchSchoolList(ctx context.Context, subareaCode string) (itemResult, error) {
	metaResp, err := c.fetcher.Get(ctx, MetadataRequest(subareaCode))
	if err != nil {
		return itemResult{}, err
	}
	if metaResp.StatusCode != http.StatusOK {
		return itemResult{}, unexpectedStatus(metaResp)
	}
	updatedAt, err := parseLastUpdated(metaResp.Body)
	if err != nil {
		return itemResult{}, fmt.Errorf("metadata: %w", err)
	}

	listResp, err := c.fetcher.Get(ctx, SchoolListRequest(subareaCode))
	if err != nil {
		return itemResult{}, err
	}
	if listResp.StatusCode != http.StatusOK {
		return itemResult{}, unexpectedStatus(listResp)
	}
	rows, err := parseSchoolCSV(listResp.Body)
	if err != nil {
		return itemResult{}, fmt.Errorf("school list: %w", err)
	}

	extra := map[string]any{
		record.KeyAreaCode:        subareaCode,
		record.KeyServerTimestamp: updatedAt,
	}
	for i, row := range rows {
		rows[i] = record.Enrich(row, extra)
	}
	return itemResult{records: rows, outcome: OutcomeSuccess}, nil
}

// SchoolIDs returns the distinct, non-empty NPSN values of school list rows
// in first-seen order.
func SchoolIDs(rows []record.Record) []string {
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := r.String(SchoolIDField)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
