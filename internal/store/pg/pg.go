// Package pg is the PostgreSQL CredentialStore adapter, on pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS principal (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	email              TEXT NOT NULL UNIQUE,
	password_hash      TEXT NOT NULL,
	role               TEXT NOT NULL,
	is_active          BOOLEAN NOT NULL DEFAULT TRUE,
	last_login         TIMESTAMPTZ,
	login_count        BIGINT NOT NULL DEFAULT 0,
	reset_token_digest TEXT,
	reset_token_expiry TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS principal_reset_digest_idx ON principal (reset_token_digest) WHERE reset_token_digest IS NOT NULL;
`

const selectCols = `id, name, email, password_hash, role, is_active, last_login, login_count, reset_token_digest, reset_token_expiry, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

// Open connects, verifies the connection and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 10
	}
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanPrincipal(row pgx.Row) (*domain.Principal, error) {
	var p domain.Principal
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Role, &p.IsActive,
		&p.LastLogin, &p.LoginCount, &p.ResetTokenDigest, &p.ResetTokenExpiry,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Create(ctx context.Context, p *domain.Principal) error {
	const query = `
		INSERT INTO principal (id, name, email, password_hash, role, is_active, last_login, login_count, reset_token_digest, reset_token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Role, p.IsActive,
		p.LastLogin, p.LoginCount, p.ResetTokenDigest, p.ResetTokenExpiry,
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrEmailTaken
	}
	return err
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return scanPrincipal(s.pool.QueryRow(ctx,
		`SELECT `+selectCols+` FROM principal WHERE email = $1`, email))
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	return scanPrincipal(s.pool.QueryRow(ctx,
		`SELECT `+selectCols+` FROM principal WHERE id = $1`, id))
}

func (s *Store) GetByResetDigest(ctx context.Context, digest string) (*domain.Principal, error) {
	return scanPrincipal(s.pool.QueryRow(ctx,
		`SELECT `+selectCols+` FROM principal WHERE reset_token_digest = $1`, digest))
}

func (s *Store) Update(ctx context.Context, p *domain.Principal) error {
	const query = `
		UPDATE principal SET
			name = $2, email = $3, password_hash = $4, role = $5, is_active = $6,
			last_login = $7, login_count = $8, reset_token_digest = $9, reset_token_expiry = $10,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Role, p.IsActive,
		p.LastLogin, p.LoginCount, p.ResetTokenDigest, p.ResetTokenExpiry,
	)
	if isUniqueViolation(err) {
		return store.ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
