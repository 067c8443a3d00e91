package directory

import (
	"net/http"

	"github.com/Sternrassler/school-directory-crawler/pkg/client"
	"github.com/Sternrassler/school-directory-crawler/pkg/record"
	"github.com/rs/zerolog"
)

// Outcome is how a single identifier's fetch ended.
type Outcome int

const (
	// OutcomeSuccess means the item produced its records.
	OutcomeSuccess Outcome = iota
	// OutcomeNotFound means the upstream answered 404; a placeholder was produced.
	OutcomeNotFound
	// OutcomeDropped means the response could not be used and nothing was produced.
	OutcomeDropped
)

// String returns the metric label of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// ClassifyDetail turns a detail response into an output record.
//
//   - 200: the satuanPendidikan payload enriched with serverTimestamp.
//   - 404: an ErrorPlaceholder row carrying the NPSN, URL and status line.
//   - anything else, or a 200 with an unusable body: no record, warning logged.
func ClassifyDetail(resp *client.Response, npsn string, logger zerolog.Logger) (record.Record, Outcome) {
	switch resp.StatusCode {
	case http.StatusOK:
		payload, updatedAt, err := parseDetail(resp.Body)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("npsn", npsn).
				Str("url", resp.URL).
				Msg("Dropping unparseable school detail")
			return nil, OutcomeDropped
		}
		return record.Enrich(payload, map[string]any{record.KeyServerTimestamp: updatedAt}), OutcomeSuccess

	case http.StatusNotFound:
		logger.Warn().
			Str("npsn", npsn).
			Str("url", resp.URL).
			Msg("School detail not found")
		return record.ErrorPlaceholder{
			Identifier: npsn,
			SourceURL:  resp.URL,
			ErrorKind:  resp.StatusLine(),
		}.Record(), OutcomeNotFound

	default:
		logger.Warn().
			Str("npsn", npsn).
			Str("url", resp.URL).
			Int("status", resp.StatusCode).
			Msg("Dropping school detail with unexpected status")
		return nil, OutcomeDropped
	}
}
