package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/store"
)

// LoginInput identifies the entry point used via Role. The two HTTP login
// endpoints funnel into this one operation so the anti-enumeration symmetry
// is structural, not manually kept in sync.
type LoginInput struct {
	Email    string
	Password string
	Role     domain.Role
}

// Login authenticates against the entry point's role. A correct password on
// the wrong entry point fails exactly like an unknown email: both are
// ErrInvalidCredentials, never anything more specific.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("Login"))

	in.Email = domain.NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" || !in.Role.Valid() {
		return nil, ErrMissingFields
	}

	p, err := s.deps.Store.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	if p.Role != in.Role {
		log.Debug("login failed: wrong entry point for principal")
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(in.Password, p.PasswordHash) {
		log.Debug("login failed: password mismatch", logger.PrincipalID(p.ID))
		return nil, ErrInvalidCredentials
	}

	if !p.IsActive {
		log.Info("login rejected: account inactive", logger.PrincipalID(p.ID))
		return nil, ErrAccountInactive
	}

	// Bookkeeping is best-effort: a failed counter update must not fail the
	// login itself.
	now := s.now()
	p.LastLogin = &now
	p.LoginCount++
	if err := s.deps.Store.Update(ctx, p); err != nil {
		log.Warn("login bookkeeping update failed",
			logger.PrincipalID(p.ID), logger.Err(err))
	}

	tok, exp, err := s.deps.Issuer.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	log.Info("login successful",
		logger.PrincipalID(p.ID),
		logger.Role(string(p.Role)),
	)

	return &AuthResult{
		Principal: p.Sanitize(),
		Token:     tok,
		ExpiresAt: exp,
	}, nil
}
