package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"tradeSite/internal/db"
	"tradeSite/internal/logging"
)

// OpenInMemoryDB opens a named in-memory SQLite database with all migrations applied.
// The handle is closed on test cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache so every pooled connection sees the same database.
	d, err := db.Open(context.Background(), "file:"+name+"?mode=memory&cache=shared", logging.Discard())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// DBName derives a database name unique to the running test.
func DBName(t *testing.T) string {
	return strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
}

// GenerateToken signs an HS256 token carrying sub and role, valid for ttl.
// A negative ttl yields an already expired token.
func GenerateToken(t *testing.T, secret, sub, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  now.Add(-time.Minute).Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns an incoming gRPC context carrying the token in the authorization header.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
