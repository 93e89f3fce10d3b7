package binder

import "net/http"

// Path binds router path parameters using `path` tags. The extractor is
// usually chi.URLParam. Path values override anything a body binder set.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return ErrNotApplicable
		}
		return bindValues(v, "path", func(name string) (string, bool) {
			value := extractor(r, name)
			return value, value != ""
		}, ErrFailedToParsePath)
	}
}
