package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	htemplate "html/template"
	"net/url"
	ttemplate "text/template"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/clearline/authd/internal/observability/logger"
)

// SMTPConfig configures the outbound transport. An empty Host means "no
// transport"; callers should use Disabled() instead of a half-built sender.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool   // dev only

	// BaseURL is the SPA origin the reset link points at,
	// e.g. https://app.clearline.example
	BaseURL string

	// DialTimeout bounds the whole dial+send. Default 10s.
	DialTimeout time.Duration
}

type smtpService struct {
	cfg       SMTPConfig
	resetHTML *htemplate.Template
	resetText *ttemplate.Template
}

// NewSMTP builds an SMTP-backed Service with the default reset templates.
func NewSMTP(cfg SMTPConfig) (Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("email: smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	rh, err := htemplate.New("reset_html").Parse(defaultResetHTML)
	if err != nil {
		return nil, fmt.Errorf("email: parse reset HTML template: %w", err)
	}
	rt, err := ttemplate.New("reset_text").Parse(defaultResetText)
	if err != nil {
		return nil, fmt.Errorf("email: parse reset text template: %w", err)
	}

	return &smtpService{cfg: cfg, resetHTML: rh, resetText: rt}, nil
}

func (s *smtpService) Enabled() bool { return true }

type resetData struct {
	Name     string
	ResetURL string
}

func (s *smtpService) resetURL(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.cfg.BaseURL, url.QueryEscape(token))
}

func (s *smtpService) SendPasswordReset(ctx context.Context, req SendPasswordResetRequest) error {
	log := logger.From(ctx).With(
		logger.Component("email.smtp"),
		logger.String("host", s.cfg.Host),
		logger.Email(req.To),
	)

	data := resetData{Name: req.Name, ResetURL: s.resetURL(req.Token)}

	var htmlBuf, textBuf bytes.Buffer
	if err := s.resetHTML.Execute(&htmlBuf, data); err != nil {
		return fmt.Errorf("email: render reset HTML: %w", err)
	}
	if err := s.resetText.Execute(&textBuf, data); err != nil {
		return fmt.Errorf("email: render reset text: %w", err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", req.To)
	m.SetHeader("Subject", "Reset your password")
	m.SetBody("text/plain", textBuf.String())
	m.AddAlternative("text/html", htmlBuf.String())

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = s.cfg.DialTimeout
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.cfg.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negotiates STARTTLS when offered
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("email: smtp send: %w", err)
	}

	log.Info("password reset email sent")
	return nil
}

const defaultResetText = `Hi {{.Name}},

We received a request to reset your password. The link below is valid for one
hour and can be used once:

{{.ResetURL}}

If you didn't ask for this, you can ignore this message; your password has not
changed.
`

const defaultResetHTML = `<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <p>Hi {{.Name}},</p>
    <p>We received a request to reset your password. The link below is valid
    for one hour and can be used once:</p>
    <p><a href="{{.ResetURL}}">Reset your password</a></p>
    <p>If you didn't ask for this, you can ignore this message; your password
    has not changed.</p>
  </body>
</html>
`
