package handler

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNilResponse indicates a handler returned nil instead of a Response
	ErrNilResponse = errors.New("handler returned nil response")
)

// HTTPError is an operational error with a status code and a message that is
// safe to show to clients.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e HTTPError) Unwrap() error { return e.Err }

func (e HTTPError) StatusCode() int { return e.Code }

func (e HTTPError) PublicMessage() string { return e.Message }

// Wrap attaches a cause kept for logs only.
func (e HTTPError) Wrap(err error) HTTPError {
	e.Err = err
	return e
}

// Common client errors.
var (
	ErrBadRequest       = NewHTTPError(http.StatusBadRequest, "Invalid request body")
	ErrUnauthorized     = NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	ErrTooManyRequests  = NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later.")
	ErrMethodNotAllowed = NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")
)

// RouteNotFound is the 404 reported for paths no route matches.
func RouteNotFound(path string) HTTPError {
	return NewHTTPError(http.StatusNotFound, fmt.Sprintf("Cannot find %s on this server!", path))
}
