// Package redis provides a Redis-backed design cache.
//
// Entries are plain string keys under a configurable prefix, with optional
// expiration. Use it when multiple builder processes should share cached
// designs.
//
//	cache := redisstore.NewRedisCache(redisstore.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  24 * time.Hour,
//	})
//	defer cache.Close()
//
//	builder := design.NewBuilder(model, design.WithCache(cache))
package redis
