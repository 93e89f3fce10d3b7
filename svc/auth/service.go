package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/captcha"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/svc/account"
)

// Captcha actions checked on the public forms.
const (
	ActionSignUp = "signup"
	ActionSignIn = "signin"
)

const (
	DefaultResetTokenTTL = time.Hour

	resetTokenBytes = 20
	resetPath       = "/auth/reset-password/"
)

type Config struct {
	BaseURL       string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	// UniformErrors hides whether an email is registered: sign-in failures
	// share one message and forgot-password always reports success.
	UniformErrors bool `env:"UNIFORM_AUTH_ERRORS" envDefault:"false"`
}

// Session is the outcome of a successful sign-in.
type Session struct {
	Account   *account.Account
	Token     string
	ExpiresAt time.Time
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Captcha  string
	RemoteIP string
}

type SignInInput struct {
	Email    string
	Password string
	Captcha  string
	RemoteIP string
}

// Service runs the authentication flows. It is safe for concurrent use.
type Service struct {
	store   account.Store
	tokens  *TokenService
	hasher  Hasher
	captcha captcha.Verifier
	mail    Enqueuer
	cfg     Config
	log     *slog.Logger

	now        func() time.Time
	newID      func() string
	resetToken func() (string, error)
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithCaptcha enables captcha checks on sign-up and sign-in.
func WithCaptcha(v captcha.Verifier) Option {
	return func(s *Service) {
		s.captcha = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the uuid v4 account id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithResetTokenGenerator replaces the random hex reset token generator.
func WithResetTokenGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.resetToken = fn
		}
	}
}

func NewService(store account.Store, tokens *TokenService, mail Enqueuer, cfg Config, opts ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, errors.New("auth: account store is required")
	case tokens == nil:
		return nil, errors.New("auth: token service is required")
	case mail == nil:
		return nil, errors.New("auth: mail enqueuer is required")
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	s := &Service{
		store:      store,
		tokens:     tokens,
		hasher:     BcryptHasher{},
		mail:       mail,
		cfg:        cfg,
		log:        logger.Discard(),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
		resetToken: randomResetToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("auth"))
	return s, nil
}

// Tokens exposes the session token service for the gate.
func (s *Service) Tokens() *TokenService { return s.tokens }

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := s.checkCaptcha(ctx, in.Captcha, ActionSignUp, in.RemoteIP); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	acc := &account.Account{
		ID:           s.newID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			return nil, newError(KindEmailTaken, MsgEmailTaken, err)
		}
		return nil, newError(KindInternal, "failed to create account", err)
	}

	session, err := s.openSession(acc)
	if err != nil {
		return nil, err
	}

	if err := s.mail.Enqueue(ctx, WelcomeEmail{Email: acc.Email, Name: acc.Name}); err != nil {
		s.log.WarnContext(ctx, "failed to queue welcome email",
			logger.AccountID(acc.ID),
			logger.Error(err),
		)
	}

	s.log.InfoContext(ctx, "account created", logger.AccountID(acc.ID), logger.Event("signup"))
	return session, nil
}

func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	if err := s.checkCaptcha(ctx, in.Captcha, ActionSignIn, in.RemoteIP); err != nil {
		return nil, err
	}

	acc, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			if s.cfg.UniformErrors {
				return nil, newError(KindIncorrectPassword, MsgInvalidCredentials, err)
			}
			return nil, newError(KindAccountNotFound, MsgUserNotFound, err)
		}
		return nil, newError(KindInternal, "failed to load account", err)
	}

	if !acc.HasPassword() {
		msg := MsgPasswordNotSet
		if s.cfg.UniformErrors {
			msg = MsgInvalidCredentials
		}
		return nil, newError(KindIncorrectPassword, msg, nil)
	}

	ok, err := s.hasher.Compare(acc.PasswordHash, in.Password)
	if err != nil {
		return nil, newError(KindInternal, "failed to verify password", err)
	}
	if !ok {
		msg := MsgIncorrectPassword
		if s.cfg.UniformErrors {
			msg = MsgInvalidCredentials
		}
		return nil, newError(KindIncorrectPassword, msg, nil)
	}

	return s.openSession(acc)
}

// SignOut only records the event: tokens are not tracked server side, so
// discarding the cookie is the whole effect. It never fails.
func (s *Service) SignOut(ctx context.Context, id *Identity) {
	if id != nil {
		s.log.InfoContext(ctx, "signed out", logger.AccountID(id.AccountID), logger.Event("signout"))
	}
}

// ForgotPassword stores a one-hour reset token on the account and queues the
// reset email. When queuing fails the token is cleared again before the
// error is returned.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	acc, err := s.store.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			if s.cfg.UniformErrors {
				return nil
			}
			return newError(KindAccountNotFound, MsgNoUserWithEmail, err)
		}
		return newError(KindInternal, "failed to load account", err)
	}

	token, err := s.resetToken()
	if err != nil {
		return newError(KindInternal, "failed to generate reset token", err)
	}
	expiresAt := s.now().Add(s.cfg.ResetTokenTTL).UTC()

	if err := s.store.SetResetToken(ctx, acc.ID, token, expiresAt); err != nil {
		return newError(KindInternal, "failed to store reset token", err)
	}

	err = s.mail.Enqueue(ctx, PasswordResetEmail{
		Email:    acc.Email,
		Name:     acc.Name,
		ResetURL: s.ResetURL(token),
	})
	if err != nil {
		if rbErr := s.store.ClearResetToken(context.WithoutCancel(ctx), acc.ID); rbErr != nil {
			s.log.ErrorContext(ctx, "failed to roll back reset token",
				logger.AccountID(acc.ID),
				logger.Error(rbErr),
			)
		}
		return newError(KindMailDispatchFailed, MsgMailDispatchFailed, err)
	}

	s.log.InfoContext(ctx, "password reset requested", logger.AccountID(acc.ID), logger.Event("forgot_password"))
	return nil
}

// ResetURL is the page link mailed for token.
func (s *Service) ResetURL(token string) string {
	return s.cfg.BaseURL + resetPath + token
}

// ResetPasswordWithToken consumes a live reset token and sets a new
// password. Unknown, expired and already used tokens fail the same way.
func (s *Service) ResetPasswordWithToken(ctx context.Context, token, newPassword string) (*account.Account, error) {
	if token == "" {
		return nil, newError(KindInvalidOrExpiredToken, MsgResetTokenInvalid, nil)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	acc, err := s.store.ConsumeResetToken(ctx, token, s.now(), hash)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, newError(KindInvalidOrExpiredToken, MsgResetTokenInvalid, err)
		}
		return nil, newError(KindInternal, "failed to reset password", err)
	}

	s.log.InfoContext(ctx, "password reset with token", logger.AccountID(acc.ID), logger.Event("reset_password"))
	return acc, nil
}

// ResetPasswordAuthenticated changes the password of a signed-in account
// after checking the current one.
func (s *Service) ResetPasswordAuthenticated(ctx context.Context, accountID, oldPassword, newPassword string) error {
	acc, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return newError(KindUnauthorized, MsgInvalidSession, err)
		}
		return newError(KindInternal, "failed to load account", err)
	}

	if !acc.HasPassword() {
		return newError(KindIncorrectOldPassword, MsgIncorrectOldPassword, nil)
	}
	ok, err := s.hasher.Compare(acc.PasswordHash, oldPassword)
	if err != nil {
		return newError(KindInternal, "failed to verify password", err)
	}
	if !ok {
		return newError(KindIncorrectOldPassword, MsgIncorrectOldPassword, nil)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return newError(KindInternal, "failed to update password", err)
	}

	s.log.InfoContext(ctx, "password changed", logger.AccountID(acc.ID), logger.Event("change_password"))
	return nil
}

// OAuthCallback signs in the owner of profile. Lookup goes by provider id,
// then by verified email (linking the provider to that account), and
// creates a new account when neither matches.
func (s *Service) OAuthCallback(ctx context.Context, profile ProviderProfile) (*Session, error) {
	if profile.ProviderUserID == "" {
		return nil, newError(KindUnauthorized, "provider identity is missing", nil)
	}

	acc, err := s.store.FindByGoogleID(ctx, profile.ProviderUserID)
	switch {
	case err == nil:
		return s.openSession(acc)
	case !errors.Is(err, account.ErrNotFound):
		return nil, newError(KindInternal, "failed to load account", err)
	}

	if profile.Email == "" {
		return nil, newError(KindUnauthorized, "provider returned no email", ErrNoPrimaryEmail)
	}

	acc, err = s.store.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !profile.EmailVerified {
			return nil, newError(KindUnauthorized, "provider email is not verified", nil)
		}
		if err := s.store.LinkGoogleID(ctx, acc.ID, profile.ProviderUserID); err != nil {
			return nil, newError(KindInternal, "failed to link provider", err)
		}
		acc.GoogleID = profile.ProviderUserID
		s.log.InfoContext(ctx, "google account linked", logger.AccountID(acc.ID), logger.Event("oauth_link"))
		return s.openSession(acc)
	case !errors.Is(err, account.ErrNotFound):
		return nil, newError(KindInternal, "failed to load account", err)
	}

	now := s.now().UTC()
	acc = &account.Account{
		ID:        s.newID(),
		Email:     profile.Email,
		Name:      displayName(profile),
		GoogleID:  profile.ProviderUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		return nil, newError(KindInternal, "failed to create account", err)
	}

	if err := s.mail.Enqueue(ctx, WelcomeEmail{Email: acc.Email, Name: acc.Name}); err != nil {
		s.log.WarnContext(ctx, "failed to queue welcome email", logger.AccountID(acc.ID), logger.Error(err))
	}
	s.log.InfoContext(ctx, "account created", logger.AccountID(acc.ID), logger.Event("oauth_signup"))
	return s.openSession(acc)
}

func (s *Service) openSession(acc *account.Account) (*Session, error) {
	token, exp, err := s.tokens.Issue(acc)
	if err != nil {
		return nil, err
	}
	return &Session{Account: acc, Token: token, ExpiresAt: exp}, nil
}

// hashPassword keeps classified hasher errors and reports the rest as
// internal.
func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		var aerr *Error
		if errors.As(err, &aerr) {
			return "", aerr
		}
		return "", newError(KindInternal, "failed to hash password", err)
	}
	return hash, nil
}

// checkCaptcha is a no-op when no verifier is configured.
func (s *Service) checkCaptcha(ctx context.Context, proof, action, remoteIP string) error {
	if s.captcha == nil {
		return nil
	}
	if strings.TrimSpace(proof) == "" {
		return newError(KindMissingCaptcha, MsgMissingCaptcha, captcha.ErrMissingToken)
	}
	if err := s.captcha.Verify(ctx, proof, action, remoteIP); err != nil {
		if errors.Is(err, captcha.ErrMissingToken) {
			return newError(KindMissingCaptcha, MsgMissingCaptcha, err)
		}
		if errors.Is(err, captcha.ErrUnavailable) {
			return newError(KindDependencyFailure, MsgCaptchaUnavailable, err)
		}
		return newError(KindCaptchaFailed, MsgCaptchaFailed, err)
	}
	return nil
}

func displayName(p ProviderProfile) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if i := strings.IndexByte(p.Email, '@'); i > 0 {
		return p.Email[:i]
	}
	return p.Email
}

func randomResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
