// Package cache stores remote page responses so repeated page requests can be
// served without a network round trip.
//
// Two backends implement the Cache interface and can be stacked:
//
//   - RedisCache: shared cache on Redis, entries expire with their TTL
//   - MemoryCache: bounded in-process LRU
//   - Layered: MemoryCache in front of another Cache (L1/L2)
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	l2 := cache.NewRedisCache(redisClient)
//	l1, _ := cache.NewMemoryCache(256)
//	c := cache.NewLayered(l1, l2)
//
//	key := cache.Key{
//		URL:    "https://api.example.com/items",
//		Method: "GET",
//		Params: url.Values{"pageNumber": {"2"}, "pageSize": {"10"}},
//	}
//
//	entry, err := c.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch, then c.Set(ctx, key, entry)
//	}
//
// # Metrics
//
//   - pagination_cache_hits_total{layer} - Cache hits by layer (memory, redis)
//   - pagination_cache_misses_total - Cache misses
//   - pagination_cache_errors_total{operation} - Cache operation errors
package cache
