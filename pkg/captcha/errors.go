package captcha

import "errors"

var (
	ErrMissingSecret      = errors.New("captcha: secret key is required")
	ErrMissingToken       = errors.New("captcha: token is missing")
	ErrVerificationFailed = errors.New("captcha: verification failed")

	// ErrUnavailable accompanies ErrVerificationFailed when siteverify could
	// not be reached or answered with something other than a verdict.
	ErrUnavailable = errors.New("captcha: verification service unavailable")
)
