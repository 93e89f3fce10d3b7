package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

const (
	SessionCookie     = "token"
	DefaultSignInPath = "/auth/signin"
)

// DenyFunc renders a rejected API request. err is always an *Error of
// KindUnauthorized.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// Gate admits requests carrying a valid session cookie and stores the
// Identity in the request context. Rejections never surface as 5xx.
type Gate struct {
	tokens     *TokenService
	cookies    *cookie.Manager
	extract    jwt.TokenExtractorFunc
	signInPath string
	log        *slog.Logger
}

type GateOption func(*Gate)

func WithSignInPath(path string) GateOption {
	return func(g *Gate) {
		if path != "" {
			g.signInPath = path
		}
	}
}

func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

func NewGate(tokens *TokenService, cookies *cookie.Manager, opts ...GateOption) *Gate {
	g := &Gate{
		tokens:     tokens,
		cookies:    cookies,
		extract:    jwt.CookieTokenExtractor(SessionCookie),
		signInPath: DefaultSignInPath,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetSession writes the session cookie for s. Max-Age equals the token TTL.
func (g *Gate) SetSession(w http.ResponseWriter, s *Session) {
	maxAge := int(g.tokens.TTL() / time.Second)
	g.cookies.Set(w, SessionCookie, s.Token, cookie.WithMaxAge(maxAge), cookie.WithHTTPOnly(true))
}

func (g *Gate) ClearSession(w http.ResponseWriter) {
	g.cookies.Delete(w, SessionCookie)
}

// Identify verifies the session cookie of r.
func (g *Gate) Identify(r *http.Request) (*Identity, error) {
	token, err := g.extract(r)
	if err != nil || token == "" {
		return nil, newError(KindUnauthorized, MsgInvalidSession, errors.Join(jwt.ErrMissingToken, err))
	}
	return g.tokens.Verify(token)
}

// Page guards HTML routes: a missing or bad session redirects to the
// sign-in page and clears the stale cookie.
func (g *Gate) Page(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Identify(r)
		if err != nil {
			g.reject(w, r, err)
			http.Redirect(w, r, g.signInPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// API guards JSON routes: rejections are passed to deny after the cookie is
// cleared.
func (g *Gate) API(deny DenyFunc) func(http.Handler) http.Handler {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := g.Identify(r)
			if err != nil {
				g.reject(w, r, err)
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, err error) {
	if _, cerr := r.Cookie(SessionCookie); cerr == nil {
		g.ClearSession(w)
	}
	g.log.DebugContext(r.Context(), "session rejected", logger.Error(err))
}
