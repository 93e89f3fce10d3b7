// Package ratelimiter implements a token bucket limiter with pluggable
// storage.
//
// A Bucket holds Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request takes one token; a request that finds too
// few tokens is denied without consuming any. MemoryStore keeps buckets in
// process memory. RedisStore keeps them in Redis, updated by a Lua script so
// that concurrent instances share one budget per key.
//
//	store := ratelimiter.NewMemoryStore()
//	bucket, _ := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       200,
//		RefillRate:     200,
//		RefillInterval: 15 * time.Minute,
//	})
//	r.Use(ratelimiter.Middleware(bucket, clientip.GetIP))
package ratelimiter
