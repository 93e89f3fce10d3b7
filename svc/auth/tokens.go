package auth

import (
	"errors"
	"time"

	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/svc/account"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionClaims is the signed session payload.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified content of a session token.
type Identity struct {
	AccountID string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and verifies session tokens. Verification is pure: no
// store lookup and no revocation list.
type TokenService struct {
	signer *jwt.Service
	ttl    time.Duration
}

func NewTokenService(signer *jwt.Service, ttl time.Duration) (*TokenService, error) {
	if signer == nil {
		return nil, errors.New("auth: token signer is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{signer: signer, ttl: ttl}, nil
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for acc valid for the configured TTL.
func (s *TokenService) Issue(acc *account.Account) (string, time.Time, error) {
	now := s.signer.Now().Truncate(time.Second)
	exp := now.Add(s.ttl)

	token, err := s.signer.Generate(SessionClaims{
		Email: acc.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			Issuer:    s.signer.Issuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	if err != nil {
		return "", time.Time{}, newError(KindInternal, "failed to issue session token", err)
	}
	return token, exp, nil
}

// Verify fails with KindUnauthorized when token is malformed, badly signed or
// expired. The message tells expired tokens apart from invalid ones.
func (s *TokenService) Verify(token string) (*Identity, error) {
	var claims SessionClaims
	if err := s.signer.Parse(token, &claims); err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, newError(KindUnauthorized, MsgExpiredSession, err)
		}
		return nil, newError(KindUnauthorized, MsgInvalidSession, err)
	}
	if claims.Subject == "" {
		return nil, newError(KindUnauthorized, MsgInvalidSession, jwt.ErrInvalidToken)
	}

	id := &Identity{AccountID: claims.Subject, Email: claims.Email}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
