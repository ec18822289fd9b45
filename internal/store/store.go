// Package store defines the credential store the auth core runs against.
// The store is a key-value-by-email/id view over one table of principals;
// adapters provide per-row atomic read-modify-write.
package store

import (
	"context"
	"errors"

	"github.com/clearline/authd/internal/domain"
)

var (
	// ErrNotFound means no principal matched the lookup key.
	ErrNotFound = errors.New("store: principal not found")

	// ErrEmailTaken means a principal with the same email already exists.
	// Uniqueness is enforced at the store layer across both roles.
	ErrEmailTaken = errors.New("store: email already registered")
)

// CredentialStore is the durable record of principals. Callers pass
// already-normalized emails; adapters match exactly.
type CredentialStore interface {
	// Create inserts a new principal. Returns ErrEmailTaken on a duplicate
	// email. No fields are mutated on conflict.
	Create(ctx context.Context, p *domain.Principal) error

	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	GetByID(ctx context.Context, id string) (*domain.Principal, error)

	// GetByResetDigest finds the principal holding the given reset-token
	// digest, regardless of expiry. Expiry is the caller's check.
	GetByResetDigest(ctx context.Context, digest string) (*domain.Principal, error)

	// Update persists all mutable fields of p, matched by ID.
	Update(ctx context.Context, p *domain.Principal) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
