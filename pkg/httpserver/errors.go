package httpserver

import "errors"

var (
	ErrStart          = errors.New("httpserver: start failed")
	ErrAlreadyRunning = errors.New("httpserver: already running")
	// ErrShutdown wraps a drain that did not finish within the shutdown timeout.
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
