package binder

import (
	"fmt"
	"net/http"
)

// Form binds application/x-www-form-urlencoded bodies using `form` tags.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if mediaType(r) != "application/x-www-form-urlencoded" {
			return ErrNotApplicable
		}

		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
		}

		return bindValues(v, "form", func(name string) (string, bool) {
			values, ok := r.PostForm[name]
			if !ok || len(values) == 0 {
				return "", false
			}
			return values[0], true
		}, ErrFailedToParseForm)
	}
}
