package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/store"
)

// SignupInput covers both signup paths. AdminSecret is only consulted when
// Role is admin.
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	Role        domain.Role
	AdminSecret string
}

// AuthResult is a session token plus the sanitized principal it refers to.
type AuthResult struct {
	Principal domain.SanitizedPrincipal
	Token     string
	ExpiresAt time.Time
}

// Signup creates a principal and logs it straight in. Email is globally
// unique across both roles. The admin secret is checked before any store
// mutation.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("Signup"))

	in.Email = domain.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" || !in.Role.Valid() {
		return nil, ErrMissingFields
	}
	if !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrMissingFields)
	}
	if err := s.deps.Policy.Validate(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	if in.Role == domain.RoleAdmin {
		if s.deps.AdminSecret == "" ||
			subtle.ConstantTimeCompare([]byte(in.AdminSecret), []byte(s.deps.AdminSecret)) != 1 {
			log.Info("admin signup rejected: bad secret", logger.Email(in.Email))
			return nil, ErrInvalidAdminSecret
		}
	}

	hash, err := password.Hash(s.deps.Hash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	p := &domain.Principal{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.deps.Store.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create principal: %w", err)
	}

	tok, exp, err := s.deps.Issuer.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	log.Info("principal created",
		logger.PrincipalID(p.ID),
		logger.Role(string(p.Role)),
	)

	return &AuthResult{
		Principal: p.Sanitize(),
		Token:     tok,
		ExpiresAt: exp,
	}, nil
}
