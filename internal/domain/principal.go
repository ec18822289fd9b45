package domain

import (
	"strings"
	"time"
)

// Role distinguishes the two principal kinds. It is set at creation and is
// not mutable through self-service APIs.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is one registered identity. Exactly one row exists per
// normalized email, across both roles.
type Principal struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool

	LastLogin  *time.Time
	LoginCount int64

	// Reset fields are both nil when no password reset is pending. The store
	// only ever holds the digest; the plaintext token is never persisted.
	ResetTokenDigest *string
	ResetTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPendingReset reports whether an unexpired reset token is outstanding.
func (p *Principal) HasPendingReset(now time.Time) bool {
	return p.ResetTokenDigest != nil && p.ResetTokenExpiry != nil && now.Before(*p.ResetTokenExpiry)
}

// ClearReset drops the outstanding reset token, if any. Called after a
// successful reset so the token is single-use.
func (p *Principal) ClearReset() {
	p.ResetTokenDigest = nil
	p.ResetTokenExpiry = nil
}

// SanitizedPrincipal is the outward view of a principal. It never carries the
// password hash or the reset-token fields.
type SanitizedPrincipal struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	LoginCount int64      `json:"loginCount"`
}

// Sanitize returns the outward view of p.
func (p *Principal) Sanitize() SanitizedPrincipal {
	return SanitizedPrincipal{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		IsActive:   p.IsActive,
		LastLogin:  p.LastLogin,
		LoginCount: p.LoginCount,
	}
}

// NormalizeEmail lowercases and trims an address. Signup, login and
// forgot-password all normalize identically so the same input always maps to
// the same record.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
