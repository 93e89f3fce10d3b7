package binder_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/binder"
)

type resetRequest struct {
	Token       string `json:"token" form:"token" path:"token"`
	NewPassword string `json:"newPassword" form:"newPassword"`
	Remember    bool   `form:"remember"`
	Ignored     string `json:"-" form:"-"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("binds body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"abc","newPassword":"secret1","extra":1}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req resetRequest
		require.NoError(t, binder.JSON()(r, &req))
		assert.Equal(t, "abc", req.Token)
		assert.Equal(t, "secret1", req.NewPassword)
	})

	t.Run("skips other content types", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("token=abc"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var req resetRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrNotApplicable)
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Content-Type", "application/json")

		var req resetRequest
		require.NoError(t, binder.JSON()(r, &req))
		assert.Empty(t, req.Token)
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":`))
		r.Header.Set("Content-Type", "application/json")

		var req resetRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrFailedToParseJSON)
	})

	t.Run("too large", func(t *testing.T) {
		body := `{"token":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")

		var req resetRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrFailedToParseJSON)
	})
}

func TestForm(t *testing.T) {
	t.Parallel()

	form := url.Values{"token": {"abc"}, "newPassword": {"secret1"}, "remember": {"true"}, "Ignored": {"x"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req resetRequest
	require.NoError(t, binder.Form()(r, &req))
	assert.Equal(t, "abc", req.Token)
	assert.Equal(t, "secret1", req.NewPassword)
	assert.True(t, req.Remember)
	assert.Empty(t, req.Ignored)

	t.Run("bad bool", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("remember=maybe"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var req resetRequest
		require.ErrorIs(t, binder.Form()(r, &req), binder.ErrFailedToParseForm)
	})

	t.Run("json request not applicable", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "application/json")
		var req resetRequest
		require.ErrorIs(t, binder.Form()(r, &req), binder.ErrNotApplicable)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	extract := func(_ *http.Request, name string) string {
		if name == "token" {
			return "from-path"
		}
		return ""
	}

	req := resetRequest{Token: "from-body"}
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, binder.Path(extract)(r, &req))
	assert.Equal(t, "from-path", req.Token)

	var notStruct string
	require.ErrorIs(t, binder.Path(extract)(r, &notStruct), binder.ErrInvalidTarget)
	require.ErrorIs(t, binder.Path(nil)(r, &req), binder.ErrNotApplicable)
}

type callbackRequest struct {
	State string `query:"state"`
	Code  string `query:"code"`
	Retry int    `query:"retry"`
}

func TestQuery(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1&retry=2", nil)
	var req callbackRequest
	require.NoError(t, binder.Query()(r, &req))
	assert.Equal(t, callbackRequest{State: "s1", Code: "c1", Retry: 2}, req)

	r = httptest.NewRequest(http.MethodGet, "/?retry=many", nil)
	require.ErrorIs(t, binder.Query()(r, &req), binder.ErrFailedToParseQuery)
}
