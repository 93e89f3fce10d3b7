// Package jwt issues and verifies HS256 JSON Web Tokens.
//
// Service is a thin layer over github.com/golang-jwt/jwt/v5 that pins the
// signing method, applies issuer and expiry checks, and lets callers inject a
// clock so expiry can be tested without sleeping. Parse failures are collapsed
// into two sentinel errors: ErrExpiredToken for tokens past their exp claim and
// ErrInvalidToken for everything else (bad signature, malformed input, wrong
// algorithm, wrong issuer).
//
// # Usage
//
//	svc, err := jwt.New([]byte(cfg.Secret), jwt.WithIssuer("authkit"))
//	if err != nil {
//		return err
//	}
//
//	token, err := svc.Generate(jwt.RegisteredClaims{
//		Subject:   accountID,
//		IssuedAt:  jwt.NewNumericDate(now),
//		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
//	})
//
//	var claims jwt.RegisteredClaims
//	if err := svc.Parse(token, &claims); err != nil {
//		// errors.Is(err, jwt.ErrExpiredToken) or errors.Is(err, jwt.ErrInvalidToken)
//	}
//
// Extractors pull the raw token out of a request:
//
//	raw, err := jwt.CookieTokenExtractor("token")(r)
package jwt
