package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/store"
)

// ValidateSession verifies the bearer token and re-checks the referenced
// principal against live store state: a still-unexpired token is worthless
// once the principal is gone or deactivated. Returns the current record, not
// the stale claims.
func (s *Service) ValidateSession(ctx context.Context, tokenStr string) (*domain.SanitizedPrincipal, error) {
	claims, err := s.deps.Issuer.Parse(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	p, err := s.deps.Store.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserInactive
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	if !p.IsActive {
		return nil, ErrUserInactive
	}

	view := p.Sanitize()
	return &view, nil
}

// Logout is advisory only: tokens are stateless and stay valid for holders
// until expiry, so the contract is "log the event and never fail the caller".
func (s *Service) Logout(ctx context.Context, tokenStr string) {
	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("Logout"))

	if tokenStr == "" {
		log.Debug("logout without token")
		return
	}
	claims, err := s.deps.Issuer.Parse(tokenStr)
	if err != nil {
		log.Debug("logout with undecodable token")
		return
	}
	log.Info("logout", logger.PrincipalID(claims.PrincipalID), logger.Role(string(claims.Role)))
}
