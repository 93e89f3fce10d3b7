// Package handler provides type-safe HTTP request handling.
//
// A HandlerFunc receives a typed request filled by binders and returns a
// Response. Wrap turns it into an http.HandlerFunc:
//
//	type SignInRequest struct {
//		Email    string `json:"email" form:"email"`
//		Password string `json:"password" form:"password"`
//	}
//
//	func signIn(ctx handler.Context, req SignInRequest) handler.Response {
//		sess, err := svc.SignIn(ctx, auth.SignInInput{Email: req.Email, Password: req.Password})
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.OK("Signed in successfully", sess.Account)
//	}
//
//	r.Post("/signin", handler.Wrap(signIn,
//		handler.WithBinders[handler.Context, SignInRequest](binder.JSON(), binder.Form()),
//		handler.WithErrorHandler[handler.Context, SignInRequest](errorHandler),
//	))
//
// # Responses
//
// JSON responses share one envelope:
//
//	{"success": true, "status": 200, "message": "Signed in successfully", "data": {...}}
//
// Built with handler.JSON, handler.OK and handler.Created. HTML pages use
// handler.Templ with any templ.Component, and redirects use handler.Redirect
// (303) or handler.RedirectWithCode.
//
// # Errors
//
// handler.Error(err) defers to the route's error handler. NewErrorHandler
// classifies errors:
//
//   - validator.ValidationErrors become 400 "Validation failed" with the
//     field errors under data.errors
//   - errors with StatusCode() and PublicMessage() keep their status and
//     message, unless they report Operational() == false
//   - anything else is a 500 "Something went very wrong!"; in development the
//     raw cause is added as the error field
//
// Client errors are logged at warn level, server errors at error level.
package handler
