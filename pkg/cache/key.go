package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "sekolah"

// CacheKey identifies a cached upstream response.
type CacheKey struct {
	// Endpoint is the path relative to the API base URL
	// (e.g. "satuan-pendidikan/npsn/20100001")
	Endpoint string

	// QueryParams are the query parameters (e.g. {"kodeKecamatan": "010101"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: sekolah:endpoint:query1=val1:query2=val2
//
// Example:
//
//	sekolah:satuan-pendidikan/download:format=csv:kodeKecamatan=010101
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	return strings.Join(parts, ":")
}
