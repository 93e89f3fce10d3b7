package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/handler"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		resp        handler.Response
		wantStatus  int
		wantSuccess bool
		wantData    bool
	}{
		{"ok", handler.OK("Signed in successfully", map[string]string{"id": "a1"}), http.StatusOK, true, true},
		{"created", handler.Created("User created successfully", map[string]string{"id": "a1"}), http.StatusCreated, true, true},
		{"no data", handler.OK("Signed out successfully", nil), http.StatusOK, true, false},
		{"client error", handler.JSON(http.StatusBadRequest, "Incorrect password", nil), http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			require.NoError(t, tt.resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus, env.Status)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantData, env.Data != nil)
			if !tt.wantData {
				assert.NotContains(t, rec.Body.String(), `"data"`)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	rec := httptest.NewRecorder()
	err := handler.Error(boom).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, boom)
	assert.Zero(t, rec.Body.Len())

	require.ErrorIs(t, handler.Error(nil).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)), handler.ErrNilResponse)
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Redirect("/auth/signin").Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/signin", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	require.NoError(t, handler.RedirectWithCode("https://accounts.google.com/o/oauth2/auth", http.StatusTemporaryRedirect).
		Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
}

func TestRedirectBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"same host", "http://example.com/auth/home", "http://example.com/auth/home"},
		{"relative", "/auth/forgot-password", "/auth/forgot-password"},
		{"other host", "http://evil.com/phish", "/auth/signin"},
		{"no referer", "", "/auth/signin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			if tt.referer != "" {
				r.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, handler.RedirectBack("/auth/signin").Render(rec, r))
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestTempl(t *testing.T) {
	t.Parallel()

	t.Run("renders html", func(t *testing.T) {
		t.Parallel()
		page := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<h1>Sign in</h1>")
			return err
		})

		rec := httptest.NewRecorder()
		require.NoError(t, handler.TemplWithStatus(page, http.StatusUnauthorized).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "<h1>Sign in</h1>", rec.Body.String())
	})

	t.Run("render failure writes nothing", func(t *testing.T) {
		t.Parallel()
		page := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, _ = io.WriteString(w, "<h1>partial")
			return errors.New("template failed")
		})

		rec := httptest.NewRecorder()
		require.Error(t, handler.Templ(page).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Zero(t, rec.Body.Len())
	})
}
