// Package email delivers the password-reset mail. Delivery is advisory from
// the auth core's perspective: failures are logged by the caller and never
// change the client-facing response.
package email

import "context"

// SendPasswordResetRequest carries everything needed to build the reset mail.
// Token is the plaintext reset token; this is the only place it ever leaves
// the process.
type SendPasswordResetRequest struct {
	To    string
	Name  string
	Token string
}

// Service sends outbound auth mail.
type Service interface {
	// Enabled reports whether a transport is configured. An unconfigured
	// service is a valid state, not an error.
	Enabled() bool

	SendPasswordReset(ctx context.Context, req SendPasswordResetRequest) error
}
