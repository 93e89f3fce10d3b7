package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/authkit/pkg/pg"
)

// DB is the subset of pgxpool.Pool the Postgres backend needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id, email, name, COALESCE(password_hash, ''), COALESCE(google_id, ''),
	COALESCE(reset_token, ''), reset_token_expires_at, created_at, updated_at`

const (
	insertAccountSQL = `INSERT INTO accounts
	(id, email, name, password_hash, google_id, reset_token, reset_token_expires_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectByIDSQL       = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	selectByEmailSQL    = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	selectByGoogleIDSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE google_id = $1`

	updatePasswordSQL = `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	linkGoogleIDSQL   = `UPDATE accounts SET google_id = $2, updated_at = $3 WHERE id = $1`
	setResetTokenSQL  = `UPDATE accounts SET reset_token = $2, reset_token_expires_at = $3, updated_at = $4 WHERE id = $1`
	clearResetSQL     = `UPDATE accounts SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = $2 WHERE id = $1`

	consumeResetSQL = `UPDATE accounts
	SET password_hash = $3, reset_token = NULL, reset_token_expires_at = NULL, updated_at = $4
	WHERE reset_token = $1 AND reset_token_expires_at > $2
	RETURNING ` + accountColumns

	purgeResetSQL = `UPDATE accounts SET reset_token = NULL, reset_token_expires_at = NULL
	WHERE reset_token_expires_at <= $1`
)

const googleIDConstraint = "accounts_google_id_key"

// PostgresStore persists accounts in the accounts table created by the
// embedded migrations.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, acc *Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, insertAccountSQL,
		acc.ID, acc.Email, acc.Name,
		nullable(acc.PasswordHash), nullable(acc.GoogleID), nullable(acc.ResetToken),
		acc.ResetTokenExpiresAt, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return duplicateError(err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.queryOne(ctx, selectByIDSQL, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.queryOne(ctx, selectByEmailSQL, email)
}

func (s *PostgresStore) FindByGoogleID(ctx context.Context, googleID string) (*Account, error) {
	return s.queryOne(ctx, selectByGoogleIDSQL, googleID)
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.exec(ctx, updatePasswordSQL, id, passwordHash, s.now())
}

func (s *PostgresStore) LinkGoogleID(ctx context.Context, id, googleID string) error {
	return s.exec(ctx, linkGoogleIDSQL, id, googleID, s.now())
}

func (s *PostgresStore) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.exec(ctx, setResetTokenSQL, id, token, expiresAt, s.now())
}

func (s *PostgresStore) ClearResetToken(ctx context.Context, id string) error {
	return s.exec(ctx, clearResetSQL, id, s.now())
}

func (s *PostgresStore) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*Account, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.queryOne(ctx, consumeResetSQL, token, now, passwordHash, s.now())
}

func (s *PostgresStore) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeResetSQL, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*Account, error) {
	var (
		acc       Account
		expiresAt *time.Time
	)
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&acc.ID, &acc.Email, &acc.Name, &acc.PasswordHash, &acc.GoogleID,
		&acc.ResetToken, &expiresAt, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	if expiresAt != nil {
		t := expiresAt.UTC()
		acc.ResetTokenExpiresAt = &t
	}
	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.UpdatedAt = acc.UpdatedAt.UTC()
	return &acc, nil
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return duplicateError(err)
		}
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == googleIDConstraint {
		return ErrGoogleIDTaken
	}
	return ErrEmailTaken
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
