package cache

import "time"

// CacheEntry is a cached upstream response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode of the cached response (always 200 in practice)
	StatusCode int `json:"status_code"`

	// Status line text, e.g. "200 OK"
	Status string `json:"status"`

	// Proto, e.g. "HTTP/1.1"
	Proto string `json:"proto"`

	// ContentType header of the response
	ContentType string `json:"content_type"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an entry that expires ttl from now.
func NewEntry(statusCode int, status, proto, contentType string, body []byte, ttl time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Data:        body,
		StatusCode:  statusCode,
		Status:      status,
		Proto:       proto,
		ContentType: contentType,
		Expires:     now.Add(ttl),
		CachedAt:    now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
