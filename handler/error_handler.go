package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/requestid"
	"github.com/dmitrymomot/authkit/pkg/validator"
)

// InternalErrorMessage replaces the message of unexpected errors.
const InternalErrorMessage = "Something went very wrong!"

// ValidationFailedMessage is the message of validation error responses.
const ValidationFailedMessage = "Validation failed"

// statusError is implemented by errors that know their HTTP status and carry
// a message safe to show to clients.
type statusError interface {
	error
	StatusCode() int
	PublicMessage() string
}

// operational lets a status error opt out of having its message shown.
type operational interface {
	Operational() bool
}

// ErrorHandlerConfig configures the default error handler.
type ErrorHandlerConfig struct {
	// Development adds the raw cause of unexpected errors to the response.
	Development bool
}

// ErrorInfo contains classified error information.
type ErrorInfo struct {
	StatusCode  int
	Message     string
	Operational bool
	Fields      validator.ValidationErrors
	LogLevel    slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

func determineLogLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// ClassifyError maps err to the status and message it is reported with.
// Validation errors win over any status error wrapping them.
func ClassifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    InternalErrorMessage,
	}

	if fields := validator.ExtractValidationErrors(err); fields != nil {
		info.StatusCode = http.StatusBadRequest
		info.Message = ValidationFailedMessage
		info.Operational = true
		info.Fields = fields
	} else {
		var se statusError
		if errors.As(err, &se) {
			info.StatusCode = se.StatusCode()
			info.Operational = true
			if op, ok := se.(operational); ok {
				info.Operational = op.Operational()
			}
			if info.Operational {
				info.Message = se.PublicMessage()
			}
		}
	}

	info.LogLevel = determineLogLevel(info.StatusCode)
	return info
}

// ErrorWriter renders errors as JSON envelopes. It backs the handler error
// handler and is usable from plain middleware.
type ErrorWriter struct {
	log *slog.Logger
	cfg ErrorHandlerConfig
}

func NewErrorWriter(log *slog.Logger, cfg ErrorHandlerConfig) *ErrorWriter {
	if log == nil {
		log = logger.Discard()
	}
	return &ErrorWriter{log: log, cfg: cfg}
}

// Write logs err and renders it.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	info := ClassifyError(err)
	ew.logError(r, err, info)

	body := Envelope{
		Success: false,
		Status:  info.StatusCode,
		Message: info.Message,
	}
	if len(info.Fields) > 0 {
		body.Data = map[string]any{"errors": info.Fields}
	}
	if !info.Operational && ew.cfg.Development && err != nil {
		body.Error = err.Error()
	}

	if renderErr := writeJSON(w, body); renderErr != nil {
		ew.log.ErrorContext(r.Context(), "failed to write error response",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(renderErr),
			logger.Event("render_error_response"),
		)
	}
}

func (ew *ErrorWriter) logError(r *http.Request, err error, info ErrorInfo) {
	ew.log.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.RequestID(requestid.FromContext(r.Context())),
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Bool("operational", info.Operational),
		logger.Component("error_handler"),
	)
}

// NotFound answers unmatched routes.
func (ew *ErrorWriter) NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ew.Write(w, r, RouteNotFound(r.URL.Path))
	}
}

// MethodNotAllowed answers routes matched with an unsupported method.
func (ew *ErrorWriter) MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ew.Write(w, r, ErrMethodNotAllowed)
	}
}

// NewErrorHandler creates the JSON envelope error handler.
// Configure it once in main.go and pass it to every module.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	ew := NewErrorWriter(log, cfg)
	return func(ctx Context, err error) {
		ew.Write(ctx.ResponseWriter(), ctx.Request(), err)
	}
}
