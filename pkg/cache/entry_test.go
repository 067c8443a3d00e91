package cache

import (
	"testing"
	"time"
)

func TestCacheEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{
				Expires: tt.expires,
			}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "one hour remaining",
			expires: time.Now().Add(1 * time.Hour),
			wantMin: 59 * time.Minute,
			wantMax: 61 * time.Minute,
		},
		{
			name:    "already expired",
			expires: time.Now().Add(-1 * time.Hour),
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{
				Expires: tt.expires,
			}
			got := entry.TTL()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestNewEntry(t *testing.T) {
	before := time.Now()
	entry := NewEntry(200, "200 OK", "HTTP/1.1", "text/csv", []byte("a,b\n"), 2*time.Hour)

	if entry.StatusCode != 200 || entry.Status != "200 OK" || entry.Proto != "HTTP/1.1" {
		t.Errorf("NewEntry() status fields = %d %q %q", entry.StatusCode, entry.Status, entry.Proto)
	}
	if string(entry.Data) != "a,b\n" {
		t.Errorf("Data = %q", entry.Data)
	}
	if entry.CachedAt.Before(before) {
		t.Errorf("CachedAt = %v, want >= %v", entry.CachedAt, before)
	}
	if ttl := entry.TTL(); ttl < 119*time.Minute || ttl > 2*time.Hour {
		t.Errorf("TTL() = %v, want ~2h", ttl)
	}
}
