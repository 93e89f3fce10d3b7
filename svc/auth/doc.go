// Package auth implements account authentication: sign-up, sign-in, password
// reset and Google sign-in, plus the stateless session tokens and the HTTP
// gate that checks them.
//
// The Service orchestrates the flows and delegates persistence to an
// account.Store, hashing to a Hasher, bot checks to a captcha.Verifier and
// mail to a queue. Session tokens are signed JWTs held by the client in the
// "token" cookie. There is no server-side revocation: signing out only
// removes the cookie, and a copied token stays valid until it expires.
//
// Every domain failure is an *Error carrying a Kind. Handlers map the kind to
// an HTTP status with Kind.Status and show Error.Message to the user.
package auth
