// Package bootstrap seeds the first admin principal so a fresh deployment is
// usable before anyone knows the admin-signup secret.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/store"
)

// SeedAdminInput describes the admin to create.
type SeedAdminInput struct {
	Name     string
	Email    string
	Password string
	Hash     password.Params
}

// SeedAdmin creates an admin principal unless one already holds the email.
// Idempotent: re-running against the same store is a no-op.
func SeedAdmin(ctx context.Context, st store.CredentialStore, in SeedAdminInput) error {
	log := logger.Named("bootstrap")

	email := domain.NormalizeEmail(in.Email)
	if in.Name == "" || email == "" || in.Password == "" {
		return fmt.Errorf("bootstrap: name, email and password are required")
	}
	if in.Hash == (password.Params{}) {
		in.Hash = password.Default
	}

	if _, err := st.GetByEmail(ctx, email); err == nil {
		log.Info("admin seed skipped, email already registered", logger.Email(email))
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("bootstrap: lookup: %w", err)
	}

	hash, err := password.Hash(in.Hash, in.Password)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}

	now := time.Now().UTC()
	p := &domain.Principal{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			log.Info("admin seed skipped, email already registered", logger.Email(email))
			return nil
		}
		return fmt.Errorf("bootstrap: create admin: %w", err)
	}

	log.Info("admin principal seeded", logger.PrincipalID(p.ID), logger.Email(email))
	return nil
}
