// Package record defines the loosely typed rows produced by the directory
// crawlers and the metadata attached to them.
package record

import "maps"

// Record is one upstream row: a subarea, a school listing, or a school detail.
type Record map[string]any

// Enrichment keys attached by the crawlers.
const (
	KeyParentAreaCode  = "parentAreaCode"
	KeyAreaCode        = "areaCode"
	KeyServerTimestamp = "serverTimestamp"
)

// Placeholder keys written for a detail lookup that returned 404.
const (
	KeyPlaceholderNPSN  = "npsn"
	KeyPlaceholderURL   = "detail_url"
	KeyPlaceholderError = "error"
)

// Enrich returns a shallow copy of raw with every field of extra merged in.
// Fields in extra win on collision. raw is not modified.
func Enrich(raw Record, extra map[string]any) Record {
	out := make(Record, len(raw)+len(extra))
	maps.Copy(out, raw)
	maps.Copy(out, extra)
	return out
}

// String returns the field as a string, or "" if it is missing or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// ErrorPlaceholder stands in for a school detail the upstream reported as absent.
type ErrorPlaceholder struct {
	Identifier string
	SourceURL  string
	ErrorKind  string
}

// Record converts the placeholder to its output row.
func (p ErrorPlaceholder) Record() Record {
	return Record{
		KeyPlaceholderNPSN:  p.Identifier,
		KeyPlaceholderURL:   p.SourceURL,
		KeyPlaceholderError: p.ErrorKind,
	}
}

// IsPlaceholder reports whether r was produced from an ErrorPlaceholder.
func IsPlaceholder(r Record) bool {
	_, hasErr := r[KeyPlaceholderError]
	_, hasURL := r[KeyPlaceholderURL]
	return hasErr && hasURL
}
