package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the account module.
// Each service is optional and is only mounted if provided.
type RouterOptions struct {
	// API is mounted at /api/v1.
	API Mountable
	// Pages is mounted at /auth.
	Pages Mountable
	// APIMiddlewares wrap the API routes only, e.g. rate limiting.
	APIMiddlewares []func(http.Handler) http.Handler
}

// Router creates the account module router.
//
// Example:
//
//	api := account.NewAPIService(authSvc, gate, errs)
//	pages := account.NewPageService(authSvc, gate, cookies, errs,
//		account.WithGoogle(google), account.WithSiteKey(captchaCfg.SiteKey))
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.RouterOptions{
//		API:            api,
//		Pages:          pages,
//		APIMiddlewares: []func(http.Handler) http.Handler{account.RateLimit(limiter, errs)},
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Pages != nil {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/auth/signin", http.StatusSeeOther)
		})
		r.Mount("/auth", opts.Pages.Handle())
	}
	if opts.API != nil {
		r.Route("/api/v1", func(api chi.Router) {
			api.Use(opts.APIMiddlewares...)
			api.Mount("/", opts.API.Handle())
		})
	}

	return r
}
