// Package directory crawls the education directory API.
//
// Three orchestrators share one loop: the identifiers are paginated into
// batches of Config.BatchLimit, each batch is fetched concurrently, the rows
// are enriched or classified, and the batch is appended to a sink before the
// next batch starts. When every batch is done the sink is drained into the
// Result.
//
//   - CrawlAreas: subarea descendants of each area code, tagged with
//     parentAreaCode. Held in memory.
//   - CrawlSchoolLists: metadata + CSV download per subarea code, rows tagged
//     with areaCode and serverTimestamp. Staged on disk.
//   - CrawlDetails: one detail lookup per NPSN, routed through
//     ClassifyDetail. Staged on disk.
//
// A transport error, an unexpected status on a list or subarea fetch, or a
// staging failure aborts the whole crawl; no partial Result is returned.
// Detail 404s become placeholder rows and other detail statuses are dropped
// and counted in Result.Dropped.
package directory
