// Package requestid assigns every request an identifier, echoes it in the
// X-Request-ID response header and exposes it to handlers and loggers.
//
// A client-supplied X-Request-ID is reused when it is at most 128 characters of
// [A-Za-z0-9_-]; anything else is replaced with a fresh UUID.
package requestid
