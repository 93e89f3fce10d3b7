package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trusted    []string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "remote addr without port", remoteAddr: "10.0.0.2", want: "10.0.0.2"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "untrusted header ignored", remoteAddr: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "1.2.3.4"}, want: "10.0.0.1"},
		{name: "trusted forwarded for", remoteAddr: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "garbage, 1.2.3.4, 5.6.7.8"}, trusted: []string{"X-Forwarded-For"}, want: "1.2.3.4"},
		{name: "first trusted header wins", remoteAddr: "10.0.0.1:1", headers: map[string]string{"CF-Connecting-IP": "9.9.9.9", "X-Forwarded-For": "1.2.3.4"}, trusted: []string{"CF-Connecting-IP", "X-Forwarded-For"}, want: "9.9.9.9"},
		{name: "invalid header falls back", remoteAddr: "10.0.0.1:1", headers: map[string]string{"X-Real-IP": "nope"}, trusted: []string{"X-Real-IP"}, want: "10.0.0.1"},
		{name: "nothing valid", remoteAddr: "bogus", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.New(clientip.WithTrustedHeaders(tt.trusted...)).GetIP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.New().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.7:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.168.1.7", got)
}
