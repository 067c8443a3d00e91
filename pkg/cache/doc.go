// Package cache stores upstream directory responses in Redis.
//
// A crawl that aborts part-way (transport error, interrupt) is re-run from the
// start. With a cache configured, responses fetched by the earlier run are
// served from Redis until their TTL lapses, so the re-run only goes to the
// network for identifiers it has not seen yet.
//
// Only 200 responses are cached. 404s and other statuses always hit the
// upstream again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, 6*time.Hour)
//
//	key := cache.CacheKey{
//		Endpoint:    "satuan-pendidikan/npsn/20100001",
//		QueryParams: url.Values{},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch upstream, then manager.Set(ctx, key, cache.NewEntry(...))
//	}
//
// # Metrics
//
//   - crawler_cache_lookups_total{result} - hit, miss, expired
//   - crawler_cache_written_bytes_total - Bytes written to the cache
//   - crawler_cache_errors_total{operation} - Cache operation errors
//
// Manager.Purge drops every key under KeyPrefix; the CLI exposes it as
// "school-crawler cache purge".
package cache
