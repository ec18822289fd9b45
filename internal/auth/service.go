// Package auth orchestrates signup, login, session validation, logout and
// the password-recovery flow over the credential store, the password hasher,
// the token codec, the session issuer and the email collaborator.
package auth

import (
	"errors"
	"time"

	"github.com/clearline/authd/internal/email"
	"github.com/clearline/authd/internal/jwt"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/store"
)

// Sentinel errors. The HTTP layer maps these onto the stable error codes;
// everything else surfaces as an opaque internal error.
var (
	ErrMissingFields         = errors.New("auth: missing required fields")
	ErrWeakPassword          = errors.New("auth: password does not meet policy")
	ErrEmailExists           = errors.New("auth: email already registered")
	ErrInvalidAdminSecret    = errors.New("auth: invalid admin secret")
	ErrInvalidCredentials    = errors.New("auth: invalid credentials")
	ErrAccountInactive       = errors.New("auth: account inactive")
	ErrInvalidToken          = errors.New("auth: invalid session token")
	ErrUserInactive          = errors.New("auth: user inactive or gone")
	ErrInvalidOrExpiredReset = errors.New("auth: reset token invalid or expired")
)

// Deps wires the collaborators. Store and Issuer are required; Email may be
// email.Disabled() when no transport is configured.
type Deps struct {
	Store  store.CredentialStore
	Issuer *jwt.Issuer
	Email  email.Service
	Policy *password.Policy
	Hash   password.Params

	// AdminSecret gates the admin signup path. Empty disables admin signup.
	AdminSecret string

	// ResetTTL is the reset-token lifetime. Default 1h.
	ResetTTL time.Duration

	// EmailTimeout bounds the fire-and-forget reset delivery. Default 15s.
	EmailTimeout time.Duration

	// Now is the clock; tests override it. Default time.Now.
	Now func() time.Time
}

// Service is the auth core. Stateless between requests; every durable effect
// goes through the credential store.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.Policy == nil {
		deps.Policy = password.DefaultPolicy()
	}
	if deps.Hash == (password.Params{}) {
		deps.Hash = password.Default
	}
	if deps.ResetTTL <= 0 {
		deps.ResetTTL = time.Hour
	}
	if deps.EmailTimeout <= 0 {
		deps.EmailTimeout = 15 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Email == nil {
		deps.Email = email.Disabled()
	}
	return &Service{deps: deps}
}

func (s *Service) now() time.Time { return s.deps.Now().UTC() }
