package ratelimiter

import (
	"context"
	"time"
)

// Store persists bucket state. ConsumeTokens refills the bucket, then takes
// tokens if enough are available. A negative remaining value reports a
// denial; the bucket is left untouched in that case.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(0, time.Until(r.ResetAt))
}

type Config struct {
	Capacity       int           // burst size
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // how often tokens are added
}

// Settings is the environment-facing configuration. A window of W with
// capacity C means C requests per W for each key.
type Settings struct {
	Store    string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	Capacity int           `env:"RATE_LIMIT_CAPACITY" envDefault:"200"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
}

// BucketConfig converts s into a bucket that refills completely once per
// window.
func (s Settings) BucketConfig() Config {
	return Config{
		Capacity:       s.Capacity,
		RefillRate:     s.Capacity,
		RefillInterval: s.Window,
	}
}
