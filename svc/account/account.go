// Package account holds the credential store: the Account record and the
// storage backends the auth service persists it with.
package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("account: not found")
	ErrEmailTaken     = errors.New("account: email already registered")
	ErrGoogleIDTaken  = errors.New("account: google id already linked")
	ErrInvalidAccount = errors.New("account: invalid account")
)

// Account is a single user record. An empty PasswordHash means the account
// signs in through Google only. ResetToken and ResetTokenExpiresAt are set
// and cleared together.
type Account struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"`
	GoogleID            string     `json:"-"`
	ResetToken          string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (a *Account) HasPassword() bool { return a.PasswordHash != "" }

// ResetPending reports whether a reset token is live at now.
func (a *Account) ResetPending(now time.Time) bool {
	return a.ResetToken != "" && a.ResetTokenExpiresAt != nil && now.Before(*a.ResetTokenExpiresAt)
}

// Validate checks the record invariants every backend relies on.
func (a *Account) Validate() error {
	switch {
	case a.ID == "":
		return errors.Join(ErrInvalidAccount, errors.New("id is required"))
	case a.Email == "":
		return errors.Join(ErrInvalidAccount, errors.New("email is required"))
	case a.PasswordHash == "" && a.GoogleID == "":
		return errors.Join(ErrInvalidAccount, errors.New("password hash or google id is required"))
	case (a.ResetToken == "") != (a.ResetTokenExpiresAt == nil):
		return errors.Join(ErrInvalidAccount, errors.New("reset token and expiry must be set together"))
	}
	return nil
}

// Store persists accounts. Lookups return ErrNotFound when nothing matches.
type Store interface {
	// Create inserts a new account. A duplicate email yields ErrEmailTaken,
	// including when two inserts race.
	Create(ctx context.Context, acc *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByGoogleID(ctx context.Context, googleID string) (*Account, error)

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	LinkGoogleID(ctx context.Context, id, googleID string) error

	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error

	// ConsumeResetToken atomically matches an unexpired token, stores the
	// new hash and clears both reset fields. Of two concurrent calls with the
	// same token at most one succeeds; the other gets ErrNotFound.
	ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*Account, error)

	// PurgeExpiredResetTokens clears reset fields whose expiry is not after
	// now and reports how many accounts changed.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
