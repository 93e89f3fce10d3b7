package account

import (
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/pkg/validator"
	"github.com/dmitrymomot/authkit/svc/auth"
)

// CaptchaField is the request field carrying the reCAPTCHA proof.
const CaptchaField = "g-recaptcha-response"

// Boundary validation messages.
const (
	MsgInvalidEmail        = "Enter a valid email address"
	MsgPasswordTooShort    = "Password must be at least 6 characters long"
	MsgNewPasswordTooShort = "New password must be at least 6 characters long"
	MsgPasswordTooLong     = auth.MsgPasswordTooLong
	MsgNameRequired        = "Name is required"
	MsgPasswordRequired    = "Password is required"
	MsgOldPasswordRequired = "Old password is required"
	MsgEmailRequired       = "Email is required"
	MsgTokenRequired       = "Token is required"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = auth.MaxPasswordBytes
)

type SignUpRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
	Captcha  string `json:"g-recaptcha-response" form:"g-recaptcha-response"`
}

var cleanName = sanitizer.Compose(sanitizer.RemoveControlChars, sanitizer.SingleLine, sanitizer.Trim, sanitizer.MaxLength(100))

func (r *SignUpRequest) normalize() {
	r.Email = sanitizer.Trim(r.Email)
	r.Name = cleanName(r.Name)
}

func (r SignUpRequest) validate() error {
	return validator.FirstPerField(validator.Apply(
		validator.ValidEmail("email", r.Email).WithMessage(MsgInvalidEmail),
		validator.MinLen("password", r.Password, minPasswordLength).WithMessage(MsgPasswordTooShort),
		validator.MaxBytes("password", r.Password, maxPasswordBytes).WithMessage(MsgPasswordTooLong),
		validator.Required("name", r.Name).WithMessage(MsgNameRequired),
	))
}

type SignInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Captcha  string `json:"g-recaptcha-response" form:"g-recaptcha-response"`
}

func (r *SignInRequest) normalize() {
	r.Email = sanitizer.Trim(r.Email)
}

func (r SignInRequest) validate() error {
	return validator.FirstPerField(validator.Apply(
		validator.ValidEmail("email", r.Email).WithMessage(MsgInvalidEmail),
		validator.Required("password", r.Password).WithMessage(MsgPasswordRequired),
	))
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

func (r ForgotPasswordRequest) validate() error {
	return validator.FirstPerField(validator.Apply(
		validator.Required("email", r.Email).WithMessage(MsgEmailRequired),
		validator.ValidEmail("email", r.Email).WithMessage(MsgInvalidEmail),
	))
}

// ResetPasswordRequest resets a password with an emailed token. The path
// token overrides a token sent in the body.
type ResetPasswordRequest struct {
	Token       string `json:"token" form:"token" path:"token"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

func (r ResetPasswordRequest) validate() error {
	return validator.FirstPerField(validator.Apply(
		validator.Required("token", r.Token).WithMessage(MsgTokenRequired),
		validator.MinLen("newPassword", r.NewPassword, minPasswordLength).WithMessage(MsgPasswordTooShort),
		validator.MaxBytes("newPassword", r.NewPassword, maxPasswordBytes).WithMessage(MsgPasswordTooLong),
	))
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

func (r ChangePasswordRequest) validate() error {
	return validator.FirstPerField(validator.Apply(
		validator.Required("oldPassword", r.OldPassword).WithMessage(MsgOldPasswordRequired),
		validator.MinLen("newPassword", r.NewPassword, minPasswordLength).WithMessage(MsgNewPasswordTooShort),
		validator.MaxBytes("newPassword", r.NewPassword, maxPasswordBytes).WithMessage(MsgPasswordTooLong),
	))
}

type OAuthCallbackRequest struct {
	State string `query:"state"`
	Code  string `query:"code"`
	Error string `query:"error"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type IdentityResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func accountResponse(s *auth.Session) AccountResponse {
	return AccountResponse{ID: s.Account.ID, Email: s.Account.Email, Name: s.Account.Name}
}

func identityResponse(id *auth.Identity) IdentityResponse {
	return IdentityResponse{
		ID:        id.AccountID,
		Email:     id.Email,
		IssuedAt:  id.IssuedAt.Unix(),
		ExpiresAt: id.ExpiresAt.Unix(),
	}
}
