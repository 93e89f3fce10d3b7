package handler

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	// Error carries the raw cause of unexpected failures in development only.
	Error string `json:"error,omitempty"`
}

type jsonResponse struct {
	body Envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, j.body)
}

// JSON responds with an envelope. Success is derived from the status code.
func JSON(status int, message string, data any) Response {
	return jsonResponse{body: Envelope{
		Success: status < http.StatusBadRequest,
		Status:  status,
		Message: message,
		Data:    data,
	}}
}

// OK responds 200.
func OK(message string, data any) Response {
	return JSON(http.StatusOK, message, data)
}

// Created responds 201.
func Created(message string, data any) Response {
	return JSON(http.StatusCreated, message, data)
}

type errorResponse struct {
	err error
}

// Render hands the error back to Wrap so the configured error handler
// produces the response.
func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error returns a Response that is rendered by the route's error handler.
func Error(err error) Response {
	if err == nil {
		err = ErrNilResponse
	}
	return errorResponse{err: err}
}

func writeJSON(w http.ResponseWriter, body Envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(body.Status)
	return json.NewEncoder(w).Encode(body)
}
