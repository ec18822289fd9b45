package password

import (
	"errors"
	"fmt"
)

var ErrTooShort = errors.New("password below minimum length")
var ErrTooLong = errors.New("password above maximum length")

// Policy constrains new passwords. The same policy applies to signup and to
// reset-password.
type Policy struct {
	MinLength int
	MaxLength int
}

func DefaultPolicy() *Policy {
	return &Policy{MinLength: 8, MaxLength: 128}
}

func (p *Policy) Validate(plain string) error {
	if len(plain) < p.MinLength {
		return fmt.Errorf("%w (min %d)", ErrTooShort, p.MinLength)
	}
	if p.MaxLength > 0 && len(plain) > p.MaxLength {
		return fmt.Errorf("%w (max %d)", ErrTooLong, p.MaxLength)
	}
	return nil
}
