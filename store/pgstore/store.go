package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/store/pgstore/migrations"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, password_digest, email_verified, verify_token,
	pending_new_email, reset_token, reset_token_expiry, refresh_token_digest,
	role, is_active, user_type, first_name, last_name, country, phone_prefix,
	phone_number, created_at, updated_at`

// DBTX is the subset of *sql.DB and *sql.Tx the store needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a PostgreSQL-backed account.Store.
type Store struct {
	db  DBTX
	now func() time.Time
}

var _ account.Store = (*Store)(nil)

// New returns a Store on db. The schema must exist; see RunMigrations.
func New(db DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to dsn with the pgx driver, checks the connection and
// applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return New(db), db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		a           account.Account
		role        string
		userType    string
		resetExpiry sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordDigest, &a.EmailVerified, &a.VerifyToken,
		&a.PendingNewEmail, &a.ResetToken, &resetExpiry, &a.RefreshTokenDigest,
		&role, &a.IsActive, &userType, &a.Profile.FirstName, &a.Profile.LastName,
		&a.Profile.Country, &a.Profile.PhonePrefix, &a.Profile.PhoneNumber,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = account.Role(role)
	a.Profile.Type = account.UserType(userType)
	if resetExpiry.Valid {
		a.ResetTokenExpiry = resetExpiry.Time
	}
	return &a, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a. A unique violation on email maps to
// account.ErrEmailTaken.
func (s *Store) Create(ctx context.Context, a *account.Account) (*account.Account, error) {
	now := s.now().UTC()
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query :=
		`INSERT INTO accounts (` + accountColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING ` + accountColumns

	row := s.db.QueryRowContext(ctx, query,
		a.ID, a.Email, a.PasswordDigest, a.EmailVerified, a.VerifyToken,
		a.PendingNewEmail, a.ResetToken, nullTime(a.ResetTokenExpiry), a.RefreshTokenDigest,
		string(a.Role), a.IsActive, string(a.Profile.Type), a.Profile.FirstName, a.Profile.LastName,
		a.Profile.Country, a.Profile.PhonePrefix, a.Profile.PhoneNumber,
		createdAt, now,
	)
	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, account.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// FindByID returns the account id.
func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	return s.findOne(ctx, `id = $1`, id)
}

// FindByEmail returns the account whose current email is email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findOne(ctx, `email = $1`, email)
}

// FindByPendingEmail returns the most recently updated account with email
// pending.
func (s *Store) FindByPendingEmail(ctx context.Context, email string) (*account.Account, error) {
	if email == "" {
		return nil, account.ErrNotFound
	}
	return s.findOne(ctx, `pending_new_email = $1 ORDER BY updated_at DESC LIMIT 1`, email)
}

// Update applies p in a single statement. Preconditions become WHERE
// clauses; when no row matches, a second query tells a missing account
// from a failed precondition.
func (s *Store) Update(ctx context.Context, id string, p account.Patch) (*account.Account, error) {
	var (
		sets  []string
		where = []string{"id = $1"}
		args  = []any{id}
	)
	param := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if p.Email.Set {
		sets = append(sets, "email = "+param(p.Email.Value))
	}
	if p.PasswordDigest.Set {
		sets = append(sets, "password_digest = "+param(p.PasswordDigest.Value))
	}
	if p.EmailVerified.Set {
		sets = append(sets, "email_verified = "+param(p.EmailVerified.Value))
	}
	if p.VerifyToken.Set {
		sets = append(sets, "verify_token = "+param(p.VerifyToken.Value))
	}
	if p.PendingNewEmail.Set {
		sets = append(sets, "pending_new_email = "+param(p.PendingNewEmail.Value))
	}
	if p.ResetToken.Set {
		sets = append(sets, "reset_token = "+param(p.ResetToken.Value))
	}
	if p.ResetTokenExpiry.Set {
		sets = append(sets, "reset_token_expiry = "+param(nullTime(p.ResetTokenExpiry.Value)))
	}
	if p.RefreshTokenDigest.Set {
		sets = append(sets, "refresh_token_digest = "+param(p.RefreshTokenDigest.Value))
	}
	if p.IsActive.Set {
		sets = append(sets, "is_active = "+param(p.IsActive.Value))
	}
	sets = append(sets, "updated_at = "+param(s.now().UTC()))

	if p.ExpectVerifyToken.Set {
		where = append(where, "verify_token = "+param(p.ExpectVerifyToken.Value))
	}
	if p.ExpectResetToken.Set {
		where = append(where, "reset_token = "+param(p.ExpectResetToken.Value))
	}
	if p.ExpectRefreshTokenDigest.Set {
		where = append(where, "refresh_token_digest = "+param(p.ExpectRefreshTokenDigest.Value))
	}

	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") +
		` WHERE ` + strings.Join(where, " AND ") +
		` RETURNING ` + accountColumns

	updated, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, s.missOrPrecondition(ctx, id)
	case isUniqueViolation(err):
		return nil, account.ErrEmailTaken
	default:
		return nil, fmt.Errorf("db error: %w", err)
	}
}

func (s *Store) missOrPrecondition(ctx context.Context, id string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return account.ErrNotFound
	}
	return account.ErrPreconditionFailed
}
