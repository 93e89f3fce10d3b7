package binder

import "net/http"

// Query binds URL query parameters using `query` tags. It applies to every
// method, so it is usually listed first.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		return bindValues(v, "query", func(name string) (string, bool) {
			vals, ok := values[name]
			if !ok || len(vals) == 0 {
				return "", false
			}
			return vals[0], true
		}, ErrFailedToParseQuery)
	}
}
