package redis

import "errors"

// Connect and Healthcheck failures. Each is joined with the driver error.
var (
	ErrEmptyURL          = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL        = errors.New("redis: invalid connection URL")
	ErrNotReady          = errors.New("redis: server did not answer ping before retries ran out")
	ErrHealthcheckFailed = errors.New("redis: ping failed")
)
