package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authkit/binder"
	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/svc/auth"
)

const (
	// StateCookie holds the signed OAuth state between redirect and callback.
	StateCookie     = "oauth_state"
	DefaultStateTTL = 10 * time.Minute

	flashKey = "error"
	homePath = "/auth/home"
)

// Flash messages shown on the sign-in page after a failed Google login.
const (
	MsgOAuthStateMismatch = "Google sign-in expired or was tampered with. Please try again."
	MsgOAuthDenied        = "Google sign-in was cancelled."
	MsgOAuthFailed        = "Google sign-in failed. Please try again."
	MsgOAuthDisabled      = "Google sign-in is not available."
)

var errStateMismatch = errors.New("oauth state mismatch")

// PageService serves the HTML pages and the Google OAuth redirect flow.
type PageService struct {
	svc          *auth.Service
	gate         *auth.Gate
	cookies      *cookie.Manager
	google       auth.ProviderAdapter
	views        Views
	siteKey      string
	stateTTL     time.Duration
	signInPath   string
	errorHandler handler.ErrorHandler[handler.Context]
	log          *slog.Logger
}

type PageOption func(*PageService)

// WithGoogle enables /google and /google/callback.
func WithGoogle(p auth.ProviderAdapter) PageOption {
	return func(s *PageService) {
		s.google = p
	}
}

// WithSiteKey embeds the reCAPTCHA site key in the sign-in and sign-up pages.
func WithSiteKey(key string) PageOption {
	return func(s *PageService) {
		s.siteKey = key
	}
}

func WithViews(v Views) PageOption {
	return func(s *PageService) {
		s.views = v.withDefaults()
	}
}

func WithStateTTL(ttl time.Duration) PageOption {
	return func(s *PageService) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

func WithPageLogger(l *slog.Logger) PageOption {
	return func(s *PageService) {
		if l != nil {
			s.log = l
		}
	}
}

func NewPageService(svc *auth.Service, gate *auth.Gate, cookies *cookie.Manager, errs *handler.ErrorWriter, opts ...PageOption) *PageService {
	if errs == nil {
		errs = handler.NewErrorWriter(nil, handler.ErrorHandlerConfig{})
	}
	s := &PageService{
		svc:        svc,
		gate:       gate,
		cookies:    cookies,
		views:      DefaultViews(),
		stateTTL:   DefaultStateTTL,
		signInPath: auth.DefaultSignInPath,
		errorHandler: func(ctx handler.Context, err error) {
			errs.Write(ctx.ResponseWriter(), ctx.Request(), err)
		},
		log: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("account_pages"))
	return s
}

func (s *PageService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/signin", handler.Wrap(s.signIn, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	r.Get("/signup", handler.Wrap(s.signUp, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	r.Get("/forgot-password", handler.Wrap(s.forgotPassword, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	r.Get("/reset-password/{token}", handler.Wrap(s.resetPassword,
		handler.WithBinders[handler.Context, ResetPasswordRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, ResetPasswordRequest](s.errorHandler),
	))

	r.Get("/google", handler.Wrap(s.googleRedirect, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	r.Get("/google/callback", handler.Wrap(s.googleCallback,
		handler.WithBinders[handler.Context, OAuthCallbackRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, OAuthCallbackRequest](s.errorHandler),
	))

	r.Group(func(r chi.Router) {
		r.Use(s.gate.Page)

		r.Get("/home", handler.Wrap(s.home, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
		r.Get("/reset-password", handler.Wrap(s.changePassword, handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler)))
	})

	return r
}

func (s *PageService) signIn(ctx handler.Context, _ struct{}) handler.Response {
	return handler.Templ(s.views.SignIn(SignInPageParams{
		SiteKey:       s.siteKey,
		GoogleEnabled: s.google != nil,
		Flash:         s.takeFlash(ctx),
	}))
}

func (s *PageService) signUp(ctx handler.Context, _ struct{}) handler.Response {
	return handler.Templ(s.views.SignUp(SignUpPageParams{
		SiteKey:       s.siteKey,
		GoogleEnabled: s.google != nil,
		Flash:         s.takeFlash(ctx),
	}))
}

func (s *PageService) forgotPassword(ctx handler.Context, _ struct{}) handler.Response {
	return handler.Templ(s.views.ForgotPassword(ForgotPasswordPageParams{Flash: s.takeFlash(ctx)}))
}

func (s *PageService) resetPassword(_ handler.Context, req ResetPasswordRequest) handler.Response {
	return handler.Templ(s.views.ResetPassword(ResetPasswordPageParams{Token: req.Token}))
}

func (s *PageService) home(ctx handler.Context, _ struct{}) handler.Response {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return handler.Redirect(s.signInPath)
	}
	return handler.Templ(s.views.Home(HomePageParams{Email: id.Email}))
}

func (s *PageService) changePassword(ctx handler.Context, _ struct{}) handler.Response {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return handler.Redirect(s.signInPath)
	}
	return handler.Templ(s.views.ChangePassword(ChangePasswordPageParams{Email: id.Email}))
}

func (s *PageService) googleRedirect(ctx handler.Context, _ struct{}) handler.Response {
	if s.google == nil {
		return s.failOAuth(ctx, MsgOAuthDisabled, nil)
	}

	state, err := newState()
	if err != nil {
		return handler.Error(err)
	}
	s.cookies.SetSigned(ctx.ResponseWriter(), StateCookie, state,
		cookie.WithMaxAge(int(s.stateTTL/time.Second)),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
	return handler.RedirectWithCode(s.google.AuthURL(state), http.StatusFound)
}

// googleCallback finishes the OAuth flow. Every failure lands on the sign-in
// page with a flash message.
func (s *PageService) googleCallback(ctx handler.Context, req OAuthCallbackRequest) handler.Response {
	if s.google == nil {
		return s.failOAuth(ctx, MsgOAuthDisabled, nil)
	}

	expected, err := s.cookies.GetSigned(ctx.Request(), StateCookie)
	s.cookies.Delete(ctx.ResponseWriter(), StateCookie)
	if err != nil || req.State == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(req.State)) != 1 {
		return s.failOAuth(ctx, MsgOAuthStateMismatch, errors.Join(errStateMismatch, err))
	}
	if req.Error != "" {
		return s.failOAuth(ctx, MsgOAuthDenied, errors.New("provider error: "+req.Error))
	}

	profile, err := s.google.ResolveProfile(ctx, req.Code)
	if err != nil {
		return s.failOAuth(ctx, MsgOAuthFailed, err)
	}
	sess, err := s.svc.OAuthCallback(ctx, profile)
	if err != nil {
		return s.failOAuth(ctx, MsgOAuthFailed, err)
	}

	s.gate.SetSession(ctx.ResponseWriter(), sess)
	return handler.Redirect(homePath)
}

func (s *PageService) failOAuth(ctx handler.Context, msg string, cause error) handler.Response {
	if cause != nil {
		s.log.WarnContext(ctx, "google sign-in failed",
			logger.Error(cause),
			logger.Event("oauth_callback_failed"),
		)
	}
	if err := s.cookies.SetFlash(ctx.ResponseWriter(), flashKey, msg); err != nil {
		s.log.ErrorContext(ctx, "failed to set flash", logger.Error(err))
	}
	return handler.Redirect(s.signInPath)
}

func (s *PageService) takeFlash(ctx handler.Context) string {
	var msg string
	if err := s.cookies.GetFlash(ctx.ResponseWriter(), ctx.Request(), flashKey, &msg); err != nil {
		if !errors.Is(err, cookie.ErrCookieNotFound) {
			s.log.DebugContext(ctx, "discarded invalid flash cookie", logger.Error(err))
		}
		return ""
	}
	return msg
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
