// Package redis connects go-redis clients with retries and exposes a health
// check. The rate limiter's RedisStore is the main consumer.
package redis
