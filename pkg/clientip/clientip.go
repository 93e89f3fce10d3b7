package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Resolver extracts a client IP, consulting trusted headers in order before
// falling back to RemoteAddr.
type Resolver struct {
	headers []string
}

type Option func(*Resolver)

// WithTrustedHeaders lists proxy headers to consult, first match wins.
// Comma-separated headers such as X-Forwarded-For yield their left-most valid entry.
func WithTrustedHeaders(headers ...string) Option {
	return func(r *Resolver) {
		r.headers = append(r.headers, headers...)
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetIP returns the normalized client IP, or an empty string when none is valid.
func (res *Resolver) GetIP(r *http.Request) string {
	for _, header := range res.headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// GetIP resolves the client IP from RemoteAddr only.
func GetIP(r *http.Request) string {
	return New().GetIP(r)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
