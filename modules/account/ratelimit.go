package account

import (
	"net/http"

	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
)

// RateLimit limits requests per client IP and answers denials with a 429
// JSON envelope.
func RateLimit(limiter ratelimiter.RateLimiter, errs *handler.ErrorWriter) func(http.Handler) http.Handler {
	if errs == nil {
		errs = handler.NewErrorWriter(nil, handler.ErrorHandlerConfig{})
	}
	return ratelimiter.Middleware(limiter, remoteIP,
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
			errs.Write(w, r, handler.ErrTooManyRequests)
		}),
		ratelimiter.WithErrorHandler(errs.Write),
	)
}
