package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session lifetime when TokenConfig.TTL is zero.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned by constructors given an empty signing secret.
var ErrMissingSecret = errors.New("jwt signing secret is empty")

// TokenConfig carries the signing key and lifetime shared by Issuer and Authenticator.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

func (c TokenConfig) validate() (TokenConfig, error) {
	if strings.TrimSpace(c.Secret) == "" {
		return c, ErrMissingSecret
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTokenTTL
	}
	return c, nil
}

// Claims is the token payload. Subject holds the principal id; Role is the
// role at issuance and is never trusted for grants on its own.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs session tokens.
type Issuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewIssuer(cfg TokenConfig) (*Issuer, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// Issue returns a signed HS256 token for the principal and its expiry.
func (i *Issuer) Issue(principalID, role string) (string, time.Time, error) {
	if principalID == "" || role == "" {
		return "", time.Time{}, errors.New("principal id and role are required")
	}
	now := i.now()
	exp := now.Add(i.cfg.TTL)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}
