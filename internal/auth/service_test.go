package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/email"
	"github.com/clearline/authd/internal/jwt"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/store/memory"
)

// fastHash keeps the KDF cheap in tests.
var fastHash = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}

// recorder captures outbound reset emails instead of sending them.
type recorder struct {
	mu   sync.Mutex
	sent []email.SendPasswordResetRequest
}

func (r *recorder) Enabled() bool { return true }

func (r *recorder) SendPasswordReset(_ context.Context, req email.SendPasswordResetRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recorder) last() email.SendPasswordResetRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

// clock is an advanceable test clock.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)} }

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc   *Service
	store *memory.Store
	mail  *recorder
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	iss, err := jwt.NewIssuer("authd-test", nil, time.Hour)
	require.NoError(t, err)

	st := memory.New()
	mail := &recorder{}
	clk := newClock()

	svc := NewService(Deps{
		Store:       st,
		Issuer:      iss,
		Email:       mail,
		Hash:        fastHash,
		AdminSecret: "s3cret",
		Now:         clk.now,
	})
	return &fixture{svc: svc, store: st, mail: mail, clock: clk}
}

func (f *fixture) signupUser(t *testing.T, emailAddr, pw string) *AuthResult {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), SignupInput{
		Name:     "Test User",
		Email:    emailAddr,
		Password: pw,
		Role:     domain.RoleUser,
	})
	require.NoError(t, err)
	return res
}

func TestSignupIssuesSession(t *testing.T) {
	f := newFixture(t)
	res := f.signupUser(t, "a@x.com", "pw123456")

	require.NotEmpty(t, res.Token)
	require.Equal(t, "a@x.com", res.Principal.Email)
	require.Equal(t, domain.RoleUser, res.Principal.Role)
	require.True(t, res.Principal.IsActive)

	// The token is immediately valid.
	view, err := f.svc.ValidateSession(context.Background(), res.Token)
	require.NoError(t, err)
	require.Equal(t, res.Principal.ID, view.ID)
}

func TestSignupStoresHashNotPlaintext(t *testing.T) {
	f := newFixture(t)
	f.signupUser(t, "a@x.com", "pw123456")

	p, err := f.store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "pw123456", p.PasswordHash)
	require.NotContains(t, p.PasswordHash, "pw123456")
	require.Contains(t, p.PasswordHash, "$argon2id$")
}

func TestSignupDuplicateEmailCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.signupUser(t, "a@x.com", "pw123456")

	// Same address with different casing, even via the other entry point.
	_, err := f.svc.Signup(context.Background(), SignupInput{
		Name:        "Other",
		Email:       "  A@X.COM ",
		Password:    "pw123456",
		Role:        domain.RoleAdmin,
		AdminSecret: "s3cret",
	})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, in := range map[string]SignupInput{
		"no name":         {Email: "a@x.com", Password: "pw123456", Role: domain.RoleUser},
		"no email":        {Name: "N", Password: "pw123456", Role: domain.RoleUser},
		"no password":     {Name: "N", Email: "a@x.com", Role: domain.RoleUser},
		"bad role":        {Name: "N", Email: "a@x.com", Password: "pw123456", Role: domain.Role("root")},
		"malformed email": {Name: "N", Email: "not-an-email", Password: "pw123456", Role: domain.RoleUser},
	} {
		_, err := f.svc.Signup(ctx, in)
		require.ErrorIs(t, err, ErrMissingFields, name)
	}

	_, err := f.svc.Signup(ctx, SignupInput{
		Name: "N", Email: "a@x.com", Password: "short", Role: domain.RoleUser,
	})
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestAdminSignupSecretGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := SignupInput{
		Name:        "Admin",
		Email:       "admin@x.com",
		Password:    "pw123456",
		Role:        domain.RoleAdmin,
		AdminSecret: "wrong",
	}
	_, err := f.svc.Signup(ctx, in)
	require.ErrorIs(t, err, ErrInvalidAdminSecret)

	// The rejected attempt must not have created anything.
	_, err = f.store.GetByEmail(ctx, "admin@x.com")
	require.Error(t, err)

	in.AdminSecret = "s3cret"
	res, err := f.svc.Signup(ctx, in)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, res.Principal.Role)
}

func TestAdminSignupDisabledWhenNoSecretConfigured(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.AdminSecret = ""

	_, err := f.svc.Signup(context.Background(), SignupInput{
		Name:        "Admin",
		Email:       "admin@x.com",
		Password:    "pw123456",
		Role:        domain.RoleAdmin,
		AdminSecret: "",
	})
	require.ErrorIs(t, err, ErrInvalidAdminSecret)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	// Unknown email.
	_, errUnknown := f.svc.Login(ctx, LoginInput{
		Email: "ghost@x.com", Password: "pw123456", Role: domain.RoleUser,
	})
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)

	// Wrong password.
	_, errBadPw := f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "wrong-password", Role: domain.RoleUser,
	})
	require.ErrorIs(t, errBadPw, ErrInvalidCredentials)

	// Correct password on the wrong entry point.
	_, errWrongRole := f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "pw123456", Role: domain.RoleAdmin,
	})
	require.ErrorIs(t, errWrongRole, ErrInvalidCredentials)

	// All three collapse into the exact same error value.
	require.Equal(t, errUnknown, errBadPw)
	require.Equal(t, errUnknown, errWrongRole)
}

func TestLoginBookkeeping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	res, err := f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "pw123456", Role: domain.RoleUser,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, int64(1), res.Principal.LoginCount)
	require.NotNil(t, res.Principal.LastLogin)
	require.Equal(t, f.clock.now(), res.Principal.LastLogin.UTC())

	res, err = f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "pw123456", Role: domain.RoleUser,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Principal.LoginCount)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	p, err := f.store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	p.IsActive = false
	require.NoError(t, f.store.Update(ctx, p))

	_, err = f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "pw123456", Role: domain.RoleUser,
	})
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestValidateSessionTracksLiveState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signupUser(t, "a@x.com", "pw123456")

	view, err := f.svc.ValidateSession(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", view.Email)

	// Deactivating the principal kills the still-unexpired token.
	p, err := f.store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	p.IsActive = false
	require.NoError(t, f.store.Update(ctx, p))

	_, err = f.svc.ValidateSession(ctx, res.Token)
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestValidateSessionGarbageToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ValidateSession(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutIsAdvisory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signupUser(t, "a@x.com", "pw123456")

	f.svc.Logout(ctx, res.Token)

	// Stateless sessions: the token a holder kept is still valid after
	// logout, until it expires on its own.
	_, err := f.svc.ValidateSession(ctx, res.Token)
	require.NoError(t, err)

	// Logout never fails, whatever it is handed.
	f.svc.Logout(ctx, "")
	f.svc.Logout(ctx, "garbage")
}

func waitForEmail(t *testing.T, r *recorder, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.count() >= n },
		2*time.Second, 10*time.Millisecond, "reset email was never handed off")
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "ghost@x.com"))

	// No email, no store mutation.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, f.mail.count())
	p, err := f.store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Nil(t, p.ResetTokenDigest)
}

func TestResetPasswordFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 1)

	sent := f.mail.last()
	require.Equal(t, "a@x.com", sent.To)
	require.NotEmpty(t, sent.Token)

	// Only the digest is persisted, never the plaintext token.
	p, err := f.store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, p.ResetTokenDigest)
	require.NotEqual(t, sent.Token, *p.ResetTokenDigest)

	require.NoError(t, f.svc.ResetPassword(ctx, sent.Token, "brand-new-pw"))

	// Old password dead, new password live.
	_, err = f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "pw123456", Role: domain.RoleUser,
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginInput{
		Email: "a@x.com", Password: "brand-new-pw", Role: domain.RoleUser,
	})
	require.NoError(t, err)
}

func TestResetTokenSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 1)
	tok := f.mail.last().Token

	require.NoError(t, f.svc.ResetPassword(ctx, tok, "brand-new-pw"))

	// Replay with the consumed token.
	err := f.svc.ResetPassword(ctx, tok, "another-pw-123")
	require.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}

func TestResetTokenExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 1)
	tok := f.mail.last().Token

	// Still good just inside the hour.
	f.clock.advance(59 * time.Minute)
	// ...but not consumed yet: only advance further and then try.
	f.clock.advance(2 * time.Minute)

	err := f.svc.ResetPassword(ctx, tok, "brand-new-pw")
	require.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}

func TestResetTokenLastWriterWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 1)
	first := f.mail.last().Token

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 2)
	second := f.mail.last().Token
	require.NotEqual(t, first, second)

	// The superseded token is dead.
	err := f.svc.ResetPassword(ctx, first, "brand-new-pw")
	require.ErrorIs(t, err, ErrInvalidOrExpiredReset)

	// The fresh one works.
	require.NoError(t, f.svc.ResetPassword(ctx, second, "brand-new-pw"))
}

func TestResetPasswordWrongToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 1)

	err := f.svc.ResetPassword(ctx, "completely-wrong-token", "brand-new-pw")
	require.ErrorIs(t, err, ErrInvalidOrExpiredReset)

	err = f.svc.ResetPassword(ctx, "", "brand-new-pw")
	require.ErrorIs(t, err, ErrInvalidOrExpiredReset)
}

func TestResetPasswordPolicyStillApplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupUser(t, "a@x.com", "pw123456")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	waitForEmail(t, f.mail, 1)
	tok := f.mail.last().Token

	err := f.svc.ResetPassword(ctx, tok, "short")
	require.ErrorIs(t, err, ErrWeakPassword)

	// The failed attempt must not consume the token.
	require.NoError(t, f.svc.ResetPassword(ctx, tok, "brand-new-pw"))
}
