package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authkit/binder"
	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/pkg/clientip"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/svc/auth"
)

// Success messages of the JSON API.
const (
	MsgSignedUp        = "User created successfully"
	MsgSignedIn        = "Signed in successfully"
	MsgSignedOut       = "Signed out successfully"
	MsgPasswordChanged = "Password reset successfully"
	MsgResetEmailSent  = "Password reset email sent"
	MsgPasswordReset   = "Password has been reset successfully"
	MsgSessionIdentity = "Authenticated"
)

// APIService serves the JSON authentication endpoints.
type APIService struct {
	svc          *auth.Service
	gate         *auth.Gate
	errors       *handler.ErrorWriter
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewAPIService builds the API. Errors, gate rejections included, are
// rendered by errs as JSON envelopes.
func NewAPIService(svc *auth.Service, gate *auth.Gate, errs *handler.ErrorWriter) *APIService {
	if errs == nil {
		errs = handler.NewErrorWriter(nil, handler.ErrorHandlerConfig{})
	}
	s := &APIService{
		svc:    svc,
		gate:   gate,
		errors: errs,
	}
	s.errorHandler = func(ctx handler.Context, err error) {
		s.errors.Write(ctx.ResponseWriter(), ctx.Request(), err)
	}
	return s
}

func (s *APIService) Handle() http.Handler {
	r := chi.NewRouter()
	r.NotFound(s.errors.NotFound())
	r.MethodNotAllowed(s.errors.MethodNotAllowed())

	r.Post("/signup", handler.Wrap(s.signUp,
		handler.WithBinders[handler.Context, SignUpRequest](binder.JSON(), binder.Form()),
		handler.WithErrorHandler[handler.Context, SignUpRequest](s.errorHandler),
	))
	r.Post("/signin", handler.Wrap(s.signIn,
		handler.WithBinders[handler.Context, SignInRequest](binder.JSON(), binder.Form()),
		handler.WithErrorHandler[handler.Context, SignInRequest](s.errorHandler),
	))
	r.Post("/forgot-password", handler.Wrap(s.forgotPassword,
		handler.WithBinders[handler.Context, ForgotPasswordRequest](binder.JSON(), binder.Form()),
		handler.WithErrorHandler[handler.Context, ForgotPasswordRequest](s.errorHandler),
	))
	r.Post("/reset-password/{token}", handler.Wrap(s.resetPassword,
		handler.WithBinders[handler.Context, ResetPasswordRequest](binder.JSON(), binder.Form(), binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, ResetPasswordRequest](s.errorHandler),
	))
	r.Post("/signout", handler.Wrap(s.signOut,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	r.Group(func(r chi.Router) {
		r.Use(s.gate.API(s.errors.Write))

		r.Post("/reset-password", handler.Wrap(s.changePassword,
			handler.WithBinders[handler.Context, ChangePasswordRequest](binder.JSON(), binder.Form()),
			handler.WithErrorHandler[handler.Context, ChangePasswordRequest](s.errorHandler),
		))
		r.Get("/me", handler.Wrap(s.me,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
	})

	return r
}

func (s *APIService) signUp(ctx handler.Context, req SignUpRequest) handler.Response {
	req.normalize()
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}

	sess, err := s.svc.SignUp(ctx, auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Captcha:  req.Captcha,
		RemoteIP: remoteIP(ctx.Request()),
	})
	if err != nil {
		return handler.Error(err)
	}

	s.gate.SetSession(ctx.ResponseWriter(), sess)
	return handler.Created(MsgSignedUp, accountResponse(sess))
}

func (s *APIService) signIn(ctx handler.Context, req SignInRequest) handler.Response {
	req.normalize()
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}

	sess, err := s.svc.SignIn(ctx, auth.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		Captcha:  req.Captcha,
		RemoteIP: remoteIP(ctx.Request()),
	})
	if err != nil {
		return handler.Error(err)
	}

	s.gate.SetSession(ctx.ResponseWriter(), sess)
	return handler.OK(MsgSignedIn, accountResponse(sess))
}

// signOut succeeds with or without a valid session; the identity is only
// used for logging.
func (s *APIService) signOut(ctx handler.Context, _ struct{}) handler.Response {
	id, _ := s.gate.Identify(ctx.Request())
	s.svc.SignOut(ctx, id)
	s.gate.ClearSession(ctx.ResponseWriter())
	return handler.OK(MsgSignedOut, nil)
}

func (s *APIService) forgotPassword(ctx handler.Context, req ForgotPasswordRequest) handler.Response {
	req.Email = sanitizer.Trim(req.Email)
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	if err := s.svc.ForgotPassword(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return handler.OK(MsgResetEmailSent, nil)
}

func (s *APIService) resetPassword(ctx handler.Context, req ResetPasswordRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	if _, err := s.svc.ResetPasswordWithToken(ctx, req.Token, req.NewPassword); err != nil {
		return handler.Error(err)
	}
	return handler.OK(MsgPasswordReset, nil)
}

func (s *APIService) changePassword(ctx handler.Context, req ChangePasswordRequest) handler.Response {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	if err := s.svc.ResetPasswordAuthenticated(ctx, id.AccountID, req.OldPassword, req.NewPassword); err != nil {
		return handler.Error(err)
	}
	return handler.OK(MsgPasswordChanged, nil)
}

func (s *APIService) me(ctx handler.Context, _ struct{}) handler.Response {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}
	return handler.OK(MsgSessionIdentity, identityResponse(id))
}

// remoteIP prefers the address resolved by clientip.Middleware.
func remoteIP(r *http.Request) string {
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.GetIP(r)
}
