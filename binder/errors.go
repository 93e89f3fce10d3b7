package binder

import "errors"

var (
	// ErrNotApplicable signals that the binder does not handle this request.
	ErrNotApplicable = errors.New("binder not applicable")

	ErrFailedToParseJSON  = errors.New("failed to parse JSON request body")
	ErrFailedToParseForm  = errors.New("failed to parse form data")
	ErrFailedToParsePath  = errors.New("failed to parse path parameters")
	ErrFailedToParseQuery = errors.New("failed to parse query parameters")
	ErrInvalidTarget      = errors.New("bind target must be a non-nil pointer to struct")
)
