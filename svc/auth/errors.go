package auth

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidationFailed
	KindUnauthorized
	KindMissingCaptcha
	KindCaptchaFailed
	KindEmailTaken
	KindAccountNotFound
	KindIncorrectPassword
	KindIncorrectOldPassword
	KindInvalidOrExpiredToken
	KindMailDispatchFailed
	KindDependencyFailure
)

var kindNames = map[Kind]string{
	KindInternal:              "internal",
	KindValidationFailed:      "validation_failed",
	KindUnauthorized:          "unauthorized",
	KindMissingCaptcha:        "missing_captcha",
	KindCaptchaFailed:         "captcha_failed",
	KindEmailTaken:            "email_taken",
	KindAccountNotFound:       "account_not_found",
	KindIncorrectPassword:     "incorrect_password",
	KindIncorrectOldPassword:  "incorrect_old_password",
	KindInvalidOrExpiredToken: "invalid_or_expired_token",
	KindMailDispatchFailed:    "mail_dispatch_failed",
	KindDependencyFailure:     "dependency_failure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Status is the HTTP status code a kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindValidationFailed, KindMissingCaptcha, KindCaptchaFailed, KindEmailTaken,
		KindIncorrectPassword, KindIncorrectOldPassword, KindInvalidOrExpiredToken,
		KindDependencyFailure:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindAccountNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// User-facing messages.
const (
	MsgMissingCaptcha       = "reCAPTCHA token is missing"
	MsgCaptchaFailed        = "reCAPTCHA verification failed"
	MsgCaptchaUnavailable   = "reCAPTCHA verification is unavailable. Please try again later."
	MsgEmailTaken           = "Email already in use"
	MsgUserNotFound         = "User not found"
	MsgIncorrectPassword    = "Incorrect password"
	MsgInvalidCredentials   = "Invalid email or password"
	MsgIncorrectOldPassword = "Incorrect old password"
	MsgNoUserWithEmail      = "No user found with this email"
	MsgResetTokenInvalid    = "Password reset token is invalid or has expired"
	MsgMailDispatchFailed   = "Failed to send password reset email. Please try again later."
	MsgInvalidSession       = "Invalid token. Please log in again!"
	MsgExpiredSession       = "Your token has expired! Please log in again."
	MsgPasswordNotSet       = "Password is not set for this account"
	MsgPasswordTooLong      = "Password must be at most 72 bytes long"
	MsgTooManyRequests      = "Too many requests, please try again later."
)

// Error is a classified domain failure. Message is safe to show to users;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode satisfies the handler package's status error contract.
func (e *Error) StatusCode() int { return e.Kind.Status() }

// PublicMessage is the text rendered to clients.
func (e *Error) PublicMessage() string { return e.Message }

// Operational reports whether the message may be shown verbatim.
func (e *Error) Operational() bool { return e.Kind != KindInternal }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
