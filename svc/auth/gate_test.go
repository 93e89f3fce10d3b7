package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/svc/account"
	"github.com/dmitrymomot/authkit/svc/auth"
)

func newGate(t *testing.T, clock *testClock) (*auth.Gate, *auth.TokenService) {
	t.Helper()
	cookies, err := cookie.New([]string{"cookie-secret-with-enough-length-0123456789"})
	require.NoError(t, err)
	tokens := newTokens(t, clock)
	return auth.NewGate(tokens, cookies), tokens
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(id.AccountID))
	})
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/home", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	return req
}

func TestGatePage(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	gate, tokens := newGate(t, clock)
	h := gate.Page(identityEcho())

	token, _, err := tokens.Issue(&account.Account{ID: "acc-1", Email: "a@x.com"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-1", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(""))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.DefaultSignInPath, rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Values("Set-Cookie"), "no cookie to clear")

	clock.Advance(25 * time.Hour)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(token))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	cleared := rec.Result().Cookies()[0]
	assert.Equal(t, auth.SessionCookie, cleared.Name)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestGateAPI(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	gate, tokens := newGate(t, clock)

	var denied error
	h := gate.API(func(w http.ResponseWriter, _ *http.Request, err error) {
		denied = err
		w.WriteHeader(http.StatusUnauthorized)
	})(identityEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken("forged"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.KindUnauthorized, auth.KindOf(denied))
	require.Len(t, rec.Result().Cookies(), 1, "stale cookie is cleared")

	token, _, err := tokens.Issue(&account.Account{ID: "acc-2", Email: "b@x.com"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-2", rec.Body.String())
}

func TestGateSetSession(t *testing.T) {
	t.Parallel()

	gate, _ := newGate(t, newTestClock())
	rec := httptest.NewRecorder()
	gate.SetSession(rec, &auth.Session{Token: "tok"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 24*60*60, cookies[0].MaxAge)
}
