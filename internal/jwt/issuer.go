// Package jwt issues and verifies the self-contained session tokens.
// Tokens are EdDSA-signed bearer credentials; there is no server-side session
// store and no revocation list. A token stays valid for its holder until exp.
package jwt

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/clearline/authd/internal/domain"
)

var ErrInvalidToken = errors.New("jwt: invalid token")

// SessionClaims is the decoded view of a session token.
type SessionClaims struct {
	PrincipalID string
	Email       string
	Role        domain.Role
	Admin       bool
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Issuer signs session tokens with a single Ed25519 key.
type Issuer struct {
	Iss       string
	AccessTTL time.Duration

	kid  string
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewIssuer builds an issuer from a 32-byte Ed25519 seed. A nil seed
// generates an ephemeral key: fine for dev, useless across restarts since
// outstanding tokens die with the process.
func NewIssuer(iss string, seed []byte, accessTTL time.Duration) (*Issuer, error) {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}

	var priv ed25519.PrivateKey
	if seed == nil {
		_, k, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, fmt.Errorf("jwt: generate key: %w", err)
		}
		priv = k
	} else {
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("jwt: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv = ed25519.NewKeyFromSeed(seed)
	}
	pub := priv.Public().(ed25519.PublicKey)

	// kid derived from the pubkey so restarts with the same seed agree.
	sum := sha256.Sum256(pub)
	kid := base64.RawURLEncoding.EncodeToString(sum[:8])

	return &Issuer{
		Iss:       iss,
		AccessTTL: accessTTL,
		kid:       kid,
		priv:      priv,
		pub:       pub,
	}, nil
}

// Issue signs a session token for p. Claims carry id, email, role and an
// admin flag alongside the standard time claims.
func (i *Issuer) Issue(p *domain.Principal) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   p.ID,
		"email": p.Email,
		"role":  string(p.Role),
		"adm":   p.Role == domain.RoleAdmin,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.priv)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies signature, issuer and time claims (30s leeway) and returns
// the session claims. Every failure collapses into ErrInvalidToken; callers
// must not distinguish malformed from mis-signed from expired.
func (i *Issuer) Parse(tokenStr string) (*SessionClaims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.kid {
			return nil, errors.New("unknown kid")
		}
		return i.pub, nil
	}

	tok, err := jwtv5.Parse(tokenStr, keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	roleStr, _ := claims["role"].(string)
	adm, _ := claims["adm"].(bool)
	role := domain.Role(roleStr)
	if sub == "" || !role.Valid() {
		return nil, ErrInvalidToken
	}

	out := &SessionClaims{
		PrincipalID: sub,
		Email:       email,
		Role:        role,
		Admin:       adm,
	}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}
