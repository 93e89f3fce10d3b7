package account_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/modules/account"
	"github.com/dmitrymomot/authkit/pkg/captcha"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/queue"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	accountsvc "github.com/dmitrymomot/authkit/svc/account"
	"github.com/dmitrymomot/authkit/svc/auth"
)

type recordingEnqueuer struct {
	mu       sync.Mutex
	payloads []any
	fail     error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, payload any, _ ...queue.EnqueueOption) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return e.fail
	}
	e.payloads = append(e.payloads, payload)
	return nil
}

func (e *recordingEnqueuer) resetURL(t *testing.T) string {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.payloads) - 1; i >= 0; i-- {
		if p, ok := e.payloads[i].(auth.PasswordResetEmail); ok {
			return p.ResetURL
		}
	}
	t.Fatal("no password reset email queued")
	return ""
}

type fakeGoogle struct {
	profile auth.ProviderProfile
	err     error
}

func (f *fakeGoogle) ProviderID() string { return auth.OAuthProviderGoogle }

func (f *fakeGoogle) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeGoogle) ResolveProfile(_ context.Context, code string) (auth.ProviderProfile, error) {
	if code != "good-code" {
		return auth.ProviderProfile{}, auth.ErrInvalidCode
	}
	return f.profile, f.err
}

type fixture struct {
	store   *accountsvc.MemoryStore
	mail    *recordingEnqueuer
	cookies *cookie.Manager
	router  http.Handler
}

type fixtureOptions struct {
	verifier captcha.Verifier
	limiter  ratelimiter.RateLimiter
	google   auth.ProviderAdapter
}

func newFixture(t *testing.T, fo fixtureOptions) *fixture {
	t.Helper()

	signer, err := jwt.NewFromString("0123456789abcdef0123456789abcdef", jwt.WithIssuer("authkit"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(signer, auth.DefaultSessionTTL)
	require.NoError(t, err)
	cookies, err := cookie.New([]string{strings.Repeat("k", 32)})
	require.NoError(t, err)

	f := &fixture{store: accountsvc.NewMemoryStore(), mail: &recordingEnqueuer{}, cookies: cookies}

	opts := []auth.Option{auth.WithHasher(auth.BcryptHasher{Cost: bcrypt.MinCost})}
	if fo.verifier != nil {
		opts = append(opts, auth.WithCaptcha(fo.verifier))
	}
	svc, err := auth.NewService(f.store, tokens, f.mail, auth.Config{
		BaseURL:       "http://localhost:8080",
		ResetTokenTTL: time.Hour,
	}, opts...)
	require.NoError(t, err)

	gate := auth.NewGate(tokens, cookies)
	errs := handler.NewErrorWriter(nil, handler.ErrorHandlerConfig{})

	pageOpts := []account.PageOption{account.WithSiteKey("site-key-123")}
	if fo.google != nil {
		pageOpts = append(pageOpts, account.WithGoogle(fo.google))
	}
	ro := account.RouterOptions{
		API:   account.NewAPIService(svc, gate, errs),
		Pages: account.NewPageService(svc, gate, cookies, errs, pageOpts...),
	}
	if fo.limiter != nil {
		ro.APIMiddlewares = append(ro.APIMiddlewares, account.RateLimit(fo.limiter, errs))
	}
	f.router = account.Router(ro)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, strings.NewReader(string(data)))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func (f *fixture) signUp(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": email, "password": password, "name": "Ada"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := findCookie(rec, auth.SessionCookie)
	require.NotNil(t, c)
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	rec := f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "a@x.com", "password": "secret1", "name": "A"})

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.Status)
	assert.Equal(t, account.MsgSignedUp, env.Message)

	var data account.AccountResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "a@x.com", data.Email)
	assert.NotEmpty(t, data.ID)

	c := findCookie(rec, auth.SessionCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, int(auth.DefaultSessionTTL/time.Second), c.MaxAge)

	stored, err := f.store.FindByEmail(t.Context(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	rec = f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "a@x.com", "password": "secret1", "name": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgEmailTaken, decode(t, rec).Message)
	assert.Nil(t, findCookie(rec, auth.SessionCookie))
}

func TestSignUpValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	rec := f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "nope", "password": "123"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, handler.ValidationFailedMessage, env.Message)

	var data struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	got := map[string]string{}
	for _, e := range data.Errors {
		got[e.Field] = e.Message
	}
	assert.Equal(t, map[string]string{
		"email":    account.MsgInvalidEmail,
		"password": account.MsgPasswordTooShort,
		"name":     account.MsgNameRequired,
	}, got)
}

func TestPasswordLengthLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	long := strings.Repeat("p", 80)

	rec := f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "a@x.com", "password": long, "name": "A"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, handler.ValidationFailedMessage, env.Message)
	assert.Contains(t, string(env.Data), account.MsgPasswordTooLong)

	session := f.signUp(t, "b@x.com", "secret1")
	rec = f.do(t, http.MethodPost, "/api/v1/reset-password", map[string]string{"oldPassword": "secret1", "newPassword": long}, session)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), account.MsgPasswordTooLong)

	rec = f.do(t, http.MethodPost, "/api/v1/reset-password/some-token", map[string]string{"newPassword": long})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), account.MsgPasswordTooLong)

	rec = f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "c@x.com", "password": strings.Repeat("p", 72), "name": "C"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSignUpFormBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	form := url.Values{"email": {"form@x.com"}, "password": {"secret1"}, "name": {"Form"}}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/signup", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSignUpCaptcha(t *testing.T) {
	t.Parallel()

	var seen []string
	var mu sync.Mutex
	verifier := captcha.VerifierFunc(func(_ context.Context, token, action, _ string) error {
		mu.Lock()
		seen = append(seen, action)
		mu.Unlock()
		if token != "human" {
			return captcha.ErrVerificationFailed
		}
		return nil
	})
	f := newFixture(t, fixtureOptions{verifier: verifier})

	rec := f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "a@x.com", "password": "secret1", "name": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgMissingCaptcha, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "a@x.com", "password": "secret1", "name": "A", account.CaptchaField: "bot"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgCaptchaFailed, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/signup", map[string]string{"email": "a@x.com", "password": "secret1", "name": "A", account.CaptchaField: "human"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret1", account.CaptchaField: "human"})
	assert.Equal(t, http.StatusOK, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{auth.ActionSignUp, auth.ActionSignUp, auth.ActionSignIn}, seen)
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	f.signUp(t, "a@x.com", "secret1")

	rec := f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, account.MsgSignedIn, decode(t, rec).Message)
	assert.NotNil(t, findCookie(rec, auth.SessionCookie))

	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgIncorrectPassword, decode(t, rec).Message)
	assert.Nil(t, findCookie(rec, auth.SessionCookie))

	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "ghost@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, auth.MsgUserNotFound, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.ValidationFailedMessage, decode(t, rec).Message)
}

func TestSessionGateAPI(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	session := f.signUp(t, "a@x.com", "secret1")

	rec := f.do(t, http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.MsgInvalidSession, decode(t, rec).Message)
	assert.Nil(t, findCookie(rec, auth.SessionCookie), "no cookie to clear")

	rec = f.do(t, http.MethodGet, "/api/v1/me", nil, &http.Cookie{Name: auth.SessionCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := findCookie(rec, auth.SessionCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	rec = f.do(t, http.MethodGet, "/api/v1/me", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var id account.IdentityResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &id))
	assert.Equal(t, "a@x.com", id.Email)
	assert.Equal(t, auth.DefaultSessionTTL, time.Duration(id.ExpiresAt-id.IssuedAt)*time.Second)
}

func TestSignOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	session := f.signUp(t, "a@x.com", "secret1")

	rec := f.do(t, http.MethodPost, "/api/v1/signout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, account.MsgSignedOut, decode(t, rec).Message)
	cleared := findCookie(rec, auth.SessionCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	t.Run("without a session", func(t *testing.T) {
		tests := []struct {
			name    string
			cookies []*http.Cookie
		}{
			{"no cookie", nil},
			{"garbage cookie", []*http.Cookie{{Name: auth.SessionCookie, Value: "garbage"}}},
			{"already signed out", []*http.Cookie{session}},
		}
		for _, tt := range tests {
			rec := f.do(t, http.MethodPost, "/api/v1/signout", nil, tt.cookies...)
			require.Equal(t, http.StatusOK, rec.Code, tt.name)
			env := decode(t, rec)
			assert.True(t, env.Success, tt.name)
			assert.Equal(t, account.MsgSignedOut, env.Message, tt.name)
			assert.NotNil(t, findCookie(rec, auth.SessionCookie), tt.name)
		}
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	f.signUp(t, "a@x.com", "secret1")

	rec := f.do(t, http.MethodPost, "/api/v1/forgot-password", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, account.MsgResetEmailSent, decode(t, rec).Message)

	link := f.mail.resetURL(t)
	require.True(t, strings.HasPrefix(link, "http://localhost:8080/auth/reset-password/"), link)
	token := strings.TrimPrefix(link, "http://localhost:8080/auth/reset-password/")

	stored, err := f.store.FindByEmail(t.Context(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, token, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiresAt)
	assert.True(t, stored.ResetTokenExpiresAt.After(time.Now()))

	rec = f.do(t, http.MethodPost, "/api/v1/reset-password/"+token, map[string]string{"newPassword": "secret2", "token": "ignored"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, account.MsgPasswordReset, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/reset-password/"+token, map[string]string{"newPassword": "secret3"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgResetTokenInvalid, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPasswordFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	f.signUp(t, "a@x.com", "secret1")

	rec := f.do(t, http.MethodPost, "/api/v1/forgot-password", map[string]string{"email": "ghost@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, auth.MsgNoUserWithEmail, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/forgot-password", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.mail.mu.Lock()
	f.mail.fail = errors.New("queue full")
	f.mail.mu.Unlock()

	rec = f.do(t, http.MethodPost, "/api/v1/forgot-password", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, auth.MsgMailDispatchFailed, decode(t, rec).Message)

	stored, err := f.store.FindByEmail(t.Context(), "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiresAt)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	session := f.signUp(t, "a@x.com", "secret1")

	rec := f.do(t, http.MethodPost, "/api/v1/reset-password", map[string]string{"oldPassword": "secret1", "newPassword": "secret2"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/reset-password", map[string]string{"oldPassword": "nope", "newPassword": "secret2"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgIncorrectOldPassword, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/reset-password", map[string]string{"oldPassword": "secret1", "newPassword": "123"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.ValidationFailedMessage, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/reset-password", map[string]string{"oldPassword": "secret1", "newPassword": "secret2"}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, account.MsgPasswordChanged, decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureOptions{})
	rec := f.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cannot find /api/v1/nope on this server!", decode(t, rec).Message)

	rec = f.do(t, http.MethodGet, "/api/v1/signin", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
		Capacity:       2,
		RefillRate:     2,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)
	f := newFixture(t, fixtureOptions{limiter: limiter})

	for range 2 {
		rec := f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret1"})
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/signin", map[string]string{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, auth.MsgTooManyRequests, decode(t, rec).Message)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = f.do(t, http.MethodGet, "/auth/signin", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "pages are not limited")
}
