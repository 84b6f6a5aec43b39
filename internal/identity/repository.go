package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when the unique email index rejects an insert.
	ErrEmailTaken = errors.New("email already registered")
	// ErrStateChanged is returned by a guarded write whose precondition no
	// longer holds.
	ErrStateChanged = errors.New("account state changed")
)

const uniqueViolation = "23505"

// FindOption tweaks which fields a lookup returns.
type FindOption func(*findOptions)

type findOptions struct {
	withPasswordHash bool
}

// WithPasswordHash includes the password hash, which lookups omit by default.
func WithPasswordHash() FindOption {
	return func(o *findOptions) { o.withPasswordHash = true }
}

func buildFindOptions(opts []FindOption) findOptions {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	FindByID(ctx context.Context, id string, opts ...FindOption) (Account, error)
	FindByEmail(ctx context.Context, email string, opts ...FindOption) (Account, error)
	FindByConfirmation(ctx context.Context, token, code string) (Account, error)
	FindByResetToken(ctx context.Context, token string) (Account, error)
	// Update writes every field except the password hash. Flows that change a
	// single concern use the narrow writes below instead, so a stale read
	// cannot undo a concurrent change.
	Update(ctx context.Context, account Account) error
	// MarkConfirmed confirms an account that is still unconfirmed, otherwise
	// it returns ErrStateChanged.
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// SetRole assigns role to an account that is not a super admin. Super
	// admins yield ErrStateChanged.
	SetRole(ctx context.Context, id string, role Role) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	// ConsumeResetToken swaps the password hash and clears the pending reset in
	// one write, but only while token is still the account's reset token.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Schema creates the accounts table and its indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id                  UUID PRIMARY KEY,
    name                TEXT NOT NULL,
    email               TEXT NOT NULL,
    password_hash       TEXT NOT NULL,
    phone_country_code  TEXT NOT NULL,
    phone_iso_code      TEXT NOT NULL,
    phone_number        TEXT NOT NULL,
    timezone            TEXT NOT NULL,
    role                TEXT NOT NULL DEFAULT 'USER',
    consent             BOOLEAN NOT NULL,
    confirmation_status BOOLEAN NOT NULL DEFAULT FALSE,
    confirmation_token  TEXT NOT NULL,
    confirmation_code   TEXT NOT NULL,
    confirmed_at        TIMESTAMPTZ,
    reset_token         TEXT,
    reset_expires_at    TIMESTAMPTZ,
    last_reset_at       TIMESTAMPTZ,
    last_login_at       TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (email);
CREATE INDEX IF NOT EXISTS accounts_confirmation_idx ON accounts (confirmation_token, confirmation_code);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_reset_token_key ON accounts (reset_token) WHERE reset_token IS NOT NULL;
`

const accountColumns = `id, name, email, phone_country_code, phone_iso_code, phone_number, timezone, role, consent,
    confirmation_status, confirmation_token, confirmation_code, confirmed_at,
    reset_token, reset_expires_at, last_reset_at, last_login_at, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema applies Schema. Statements are idempotent.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply accounts schema: %w", err)
	}
	return nil
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	id, err := uuid.Parse(account.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, name, email, password_hash, phone_country_code, phone_iso_code,
        phone_number, timezone, role, consent, confirmation_status, confirmation_token, confirmation_code, confirmed_at,
        reset_token, reset_expires_at, last_reset_at, last_login_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		id, account.Name, account.Email, account.PasswordHash, account.Phone.CountryCode, account.Phone.ISOCode,
		account.Phone.Number, account.Timezone, string(account.Role), account.Consent,
		account.Confirmation.Status, account.Confirmation.Token, account.Confirmation.Code, utcPtr(account.Confirmation.ConfirmedAt),
		nullString(account.PasswordReset.Token), utcPtr(account.PasswordReset.ExpiresAt), utcPtr(account.PasswordReset.LastResetAt),
		utcPtr(account.LastLoginAt), account.CreatedAt.UTC(), account.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string, opts ...FindOption) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	return r.findOne(ctx, buildFindOptions(opts), "id = $1", accountID)
}

// FindByEmail fetches an account by its email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string, opts ...FindOption) (Account, error) {
	return r.findOne(ctx, buildFindOptions(opts), "email = $1", email)
}

// FindByConfirmation fetches the account holding the exact confirmation pair.
func (r *PostgresRepository) FindByConfirmation(ctx context.Context, token, code string) (Account, error) {
	return r.findOne(ctx, findOptions{}, "confirmation_token = $1 AND confirmation_code = $2", token, code)
}

// FindByResetToken fetches the account holding the reset token.
func (r *PostgresRepository) FindByResetToken(ctx context.Context, token string) (Account, error) {
	return r.findOne(ctx, findOptions{}, "reset_token = $1", token)
}

func (r *PostgresRepository) findOne(ctx context.Context, o findOptions, where string, args ...any) (Account, error) {
	columns := accountColumns
	if o.withPasswordHash {
		columns += ", password_hash"
	}
	row := r.db.QueryRow(ctx, "SELECT "+columns+" FROM accounts WHERE "+where, args...)

	var (
		id         uuid.UUID
		role       string
		resetToken *string
		account    Account
	)
	dest := []any{
		&id, &account.Name, &account.Email, &account.Phone.CountryCode, &account.Phone.ISOCode, &account.Phone.Number,
		&account.Timezone, &role, &account.Consent,
		&account.Confirmation.Status, &account.Confirmation.Token, &account.Confirmation.Code, &account.Confirmation.ConfirmedAt,
		&resetToken, &account.PasswordReset.ExpiresAt, &account.PasswordReset.LastResetAt, &account.LastLoginAt,
		&account.CreatedAt, &account.UpdatedAt,
	}
	if o.withPasswordHash {
		dest = append(dest, &account.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}

	account.ID = id.String()
	account.Role = Role(role)
	if resetToken != nil {
		account.PasswordReset.Token = *resetToken
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}

// Update writes the account's mutable fields, leaving the password hash untouched.
func (r *PostgresRepository) Update(ctx context.Context, account Account) error {
	id, err := uuid.Parse(account.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET name = $1, email = $2, phone_country_code = $3, phone_iso_code = $4,
        phone_number = $5, timezone = $6, role = $7, consent = $8, confirmation_status = $9, confirmation_token = $10,
        confirmation_code = $11, confirmed_at = $12, reset_token = $13, reset_expires_at = $14, last_reset_at = $15,
        last_login_at = $16, updated_at = $17
        WHERE id = $18`,
		account.Name, account.Email, account.Phone.CountryCode, account.Phone.ISOCode, account.Phone.Number,
		account.Timezone, string(account.Role), account.Consent, account.Confirmation.Status, account.Confirmation.Token,
		account.Confirmation.Code, utcPtr(account.Confirmation.ConfirmedAt), nullString(account.PasswordReset.Token),
		utcPtr(account.PasswordReset.ExpiresAt), utcPtr(account.PasswordReset.LastResetAt), utcPtr(account.LastLoginAt),
		time.Now().UTC(), id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return ErrEmailTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkConfirmed sets the confirmation flag only while it is still unset.
func (r *PostgresRepository) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	return r.guardedExec(ctx, accountID, `UPDATE accounts SET confirmation_status = TRUE, confirmed_at = $1, updated_at = $1
        WHERE id = $2 AND confirmation_status = FALSE`, at.UTC(), accountID)
}

// TouchLastLogin stamps last_login_at and leaves every other column alone.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	return r.execOne(ctx, `UPDATE accounts SET last_login_at = $1, updated_at = $1 WHERE id = $2`, at.UTC(), accountID)
}

// SetResetToken stores a pending reset, replacing any earlier one.
func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	return r.execOne(ctx, `UPDATE accounts SET reset_token = $1, reset_expires_at = $2, updated_at = $3 WHERE id = $4`,
		token, expiresAt.UTC(), time.Now().UTC(), accountID)
}

// SetRole changes the role of an account unless it is a super admin.
func (r *PostgresRepository) SetRole(ctx context.Context, id string, role Role) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	return r.guardedExec(ctx, accountID, `UPDATE accounts SET role = $1, updated_at = $2 WHERE id = $3 AND role <> $4`,
		string(role), time.Now().UTC(), accountID, string(RoleSuperAdmin))
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// guardedExec runs an update with a precondition. When no row changes it
// tells a missing account apart from a failed precondition.
func (r *PostgresRepository) guardedExec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	err := r.execOne(ctx, query, args...)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStateChanged
	}
	return ErrNotFound
}

// SetPassword replaces the stored password hash.
func (r *PostgresRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeResetToken stores the new hash and clears the reset token in a single
// statement guarded by the token value.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, id, token, passwordHash string, at time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts
        SET password_hash = $1, reset_token = NULL, reset_expires_at = NULL, last_reset_at = $2, updated_at = $2
        WHERE id = $3 AND reset_token = $4`, passwordHash, at.UTC(), accountID, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
