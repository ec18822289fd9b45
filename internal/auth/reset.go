package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/email"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/security/token"
	"github.com/clearline/authd/internal/store"
)

// ForgotPassword starts the recovery flow. It succeeds identically whether or
// not the email matches a principal; the caller's response must be
// indistinguishable in both cases. When a principal matches, a fresh token
// digest+expiry overwrite any prior pending reset (last writer wins) and the
// plaintext goes out via email, fire-and-forget.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("ForgotPassword"))

	emailAddr = domain.NormalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrMissingFields
	}

	p, err := s.deps.Store.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Anti-enumeration: no mutation, no email, same outcome.
			log.Debug("forgot-password for unknown email")
			return nil
		}
		return fmt.Errorf("lookup principal: %w", err)
	}

	raw, err := token.NewOpaque(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	digest := token.Digest(raw)
	expiry := s.now().Add(s.deps.ResetTTL)

	p.ResetTokenDigest = &digest
	p.ResetTokenExpiry = &expiry
	if err := s.deps.Store.Update(ctx, p); err != nil {
		return fmt.Errorf("persist reset token: %w", err)
	}

	log.Info("reset token issued", logger.PrincipalID(p.ID))

	// Delivery is bounded and detached from the request: its failure is
	// logged, never surfaced.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deps.EmailTimeout)
	go func() {
		defer cancel()
		err := s.deps.Email.SendPasswordReset(sendCtx, email.SendPasswordResetRequest{
			To:    p.Email,
			Name:  p.Name,
			Token: raw,
		})
		if err != nil {
			logger.L().Warn("password reset email delivery failed",
				logger.Component("auth"),
				logger.PrincipalID(p.ID),
				logger.Err(err),
			)
		}
	}()

	return nil
}

// ResetPassword consumes a reset token. Wrong value, expired and already
// consumed all collapse into ErrInvalidOrExpiredReset. On success the token
// fields are cleared in the same write as the new hash, so replay is
// impossible.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("ResetPassword"))

	if rawToken == "" {
		return ErrInvalidOrExpiredReset
	}
	if err := s.deps.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	digest := token.Digest(rawToken)
	p, err := s.deps.Store.GetByResetDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredReset
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if !p.HasPendingReset(s.now()) {
		return ErrInvalidOrExpiredReset
	}

	hash, err := password.Hash(s.deps.Hash, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	p.PasswordHash = hash
	p.ClearReset()
	if err := s.deps.Store.Update(ctx, p); err != nil {
		return fmt.Errorf("persist password reset: %w", err)
	}

	log.Info("password reset completed", logger.PrincipalID(p.ID))
	return nil
}
