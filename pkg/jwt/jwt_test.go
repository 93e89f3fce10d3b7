package jwt_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/jwt"
)

type testClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("with valid signing key", func(t *testing.T) {
		service, err := jwt.New([]byte("secret"))
		require.NoError(t, err)
		require.NotNil(t, service)
	})

	t.Run("with empty signing key", func(t *testing.T) {
		service, err := jwt.New(nil)
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
		require.Nil(t, service)
	})

	t.Run("from empty string", func(t *testing.T) {
		_, err := jwt.NewFromString("")
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
	})
}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	service, err := jwt.New([]byte("test-secret-key"), jwt.WithClock(clock), jwt.WithIssuer("authkit"))
	require.NoError(t, err)

	token, err := service.Generate(testClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			Issuer:    "authkit",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "a@x.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var parsed testClaims
	require.NoError(t, service.Parse(token, &parsed))
	assert.Equal(t, "acc-1", parsed.Subject)
	assert.Equal(t, "a@x.com", parsed.Email)
	assert.True(t, parsed.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := now
	service, err := jwt.New([]byte("test-secret-key"), jwt.WithClock(func() time.Time { return current }))
	require.NoError(t, err)

	token, err := service.Generate(jwt.RegisteredClaims{
		Subject:   "acc-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		expired, err := jwt.New([]byte("test-secret-key"), jwt.WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
		require.NoError(t, err)

		var claims jwt.RegisteredClaims
		err = expired.Parse(token, &claims)
		require.ErrorIs(t, err, jwt.ErrExpiredToken)
		assert.NotErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := jwt.New([]byte("another-secret"), jwt.WithClock(func() time.Time { return now }))
		require.NoError(t, err)

		var claims jwt.RegisteredClaims
		require.ErrorIs(t, other.Parse(token, &claims), jwt.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		var claims jwt.RegisteredClaims
		require.ErrorIs(t, service.Parse(token[:len(token)-2]+"xx", &claims), jwt.ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		var claims jwt.RegisteredClaims
		require.ErrorIs(t, service.Parse("not.a.jwt", &claims), jwt.ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		var claims jwt.RegisteredClaims
		require.ErrorIs(t, service.Parse("", &claims), jwt.ErrMissingToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		noExp, err := service.Generate(jwt.RegisteredClaims{Subject: "acc-1"})
		require.NoError(t, err)

		var claims jwt.RegisteredClaims
		require.ErrorIs(t, service.Parse(noExp, &claims), jwt.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		strict, err := jwt.New([]byte("test-secret-key"), jwt.WithIssuer("someone-else"), jwt.WithClock(func() time.Time { return now }))
		require.NoError(t, err)

		var claims jwt.RegisteredClaims
		require.ErrorIs(t, strict.Parse(token, &claims), jwt.ErrInvalidToken)
	})
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	t.Run("bearer", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer abc")
		token, err := jwt.BearerTokenExtractor(r)
		require.NoError(t, err)
		assert.Equal(t, "abc", token)

		r.Header.Set("Authorization", "Basic abc")
		_, err = jwt.BearerTokenExtractor(r)
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		_, err := jwt.CookieTokenExtractor("token")(r)
		require.ErrorIs(t, err, jwt.ErrMissingToken)

		r.Header.Set("Cookie", "token=xyz")
		token, err := jwt.CookieTokenExtractor("token")(r)
		require.NoError(t, err)
		assert.Equal(t, "xyz", token)
	})

	t.Run("chain", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Cookie", "token=from-cookie")
		extract := jwt.ChainExtractors(jwt.BearerTokenExtractor, jwt.CookieTokenExtractor("token"))
		token, err := extract(r)
		require.NoError(t, err)
		assert.Equal(t, "from-cookie", token)
	})
}
