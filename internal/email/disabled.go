package email

import (
	"context"

	"github.com/clearline/authd/internal/observability/logger"
)

type disabled struct{}

// Disabled returns a Service that short-circuits delivery. Used when no SMTP
// configuration is present.
func Disabled() Service { return disabled{} }

func (disabled) Enabled() bool { return false }

func (disabled) SendPasswordReset(ctx context.Context, req SendPasswordResetRequest) error {
	logger.From(ctx).Debug("email disabled, skipping password reset send",
		logger.Component("email"),
		logger.Email(req.To),
	)
	return nil
}
