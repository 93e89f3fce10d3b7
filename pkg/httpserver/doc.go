// Package httpserver runs an http.Server until its context is cancelled and
// then shuts it down within a deadline. HealthCheckHandler turns a list of
// checks into a readiness endpoint.
package httpserver
