// Package binder decodes HTTP requests into typed request structs.
//
// Each binder is a func(*http.Request, any) error suitable for
// handler.WithBinders. Body binders return ErrNotApplicable when the request
// content type belongs to another binder, so JSON and form binders can be
// stacked and the first applicable one wins:
//
//	handler.Wrap(h, handler.WithBinders[handler.Context, signUpRequest](
//		binder.JSON(), binder.Form(), binder.Path(chi.URLParam),
//	))
//
// JSON binding uses `json` tags, form binding `form` tags, path binding
// `path` tags and query binding `query` tags. Fields tagged "-" are skipped.
package binder
