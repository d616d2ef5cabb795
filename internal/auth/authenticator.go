package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Principal is the caller named by a verified token. Role is the claim as
// issued and may be stale; Authorizer decides on the live role.
type Principal struct {
	ID   string
	Role string
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Authenticator turns an Authorization header value into a Principal.
// It performs no I/O.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(cfg TokenConfig) (*Authenticator, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	return &Authenticator{secret: []byte(cfg.Secret)}, nil
}

// Authenticate validates a "Bearer <token>" header. Every failure wraps
// ErrUnauthenticated; the detail is meant for server logs only.
func (a *Authenticator) Authenticate(header string) (*Principal, error) {
	tokenStr, err := bearerToken(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return a.parse(tokenStr)
}

func (a *Authenticator) parse(tokenStr string) (*Principal, error) {
	var c Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	if c.Subject == "" || c.Role == "" {
		return nil, fmt.Errorf("%w: invalid claims", ErrUnauthenticated)
	}
	return &Principal{ID: c.Subject, Role: c.Role}, nil
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}
