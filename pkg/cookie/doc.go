// Package cookie wraps http.Cookie handling with shared defaults, HMAC-signed
// values and one-shot flash messages.
//
// A Manager is created once with one or more secrets (each at least 32
// characters). The first secret signs, every secret verifies, so secrets can
// be rotated by prepending a new one:
//
//	cookies, err := cookie.New([]string{cfg.Secret}, cookie.WithSecure(isProd))
//
//	cookies.Set(w, "token", jwt, cookie.WithMaxAge(86400))
//	cookies.SetSigned(w, "oauth_state", state, cookie.WithMaxAge(600))
//	state, err := cookies.GetSigned(r, "oauth_state")
//
//	cookies.SetFlash(w, "error", "Google sign-in failed")
//	var msg string
//	_ = cookies.GetFlash(w, r, "error", &msg)
package cookie
