package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"tradeSite/internal/logging"
	"tradeSite/models"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer JWT from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated bypass authentication (e.g., health checks).
func NewUnaryAuthInterceptor(authn *Authenticator, log logging.Logger, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := authn.Authenticate(headerFromMD(ctx))
		if err != nil {
			log.Warn(ctx, "grpc authentication failed", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, ErrUnauthenticated.Error())
		}
		ctx = logging.WithFields(WithPrincipal(ctx, p), "method", info.FullMethod, "caller_id", p.ID)
		return handler(ctx, req)
	}
}

func headerFromMD(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// RequireRoles authorizes the context principal against allowed and maps
// failures onto gRPC status codes.
func RequireRoles(ctx context.Context, authz *Authorizer, allowed Capability) (*models.User, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, ErrUnauthenticated.Error())
	}
	if authz == nil {
		return nil, status.Error(codes.Internal, "authorizer not configured")
	}
	u, err := authz.Authorize(ctx, p, allowed)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, ErrRoleChanged):
		return nil, status.Error(codes.Unauthenticated, ErrRoleChanged.Error())
	case IsAuthentication(err):
		return nil, status.Error(codes.Unauthenticated, ErrUnauthenticated.Error())
	case IsForbidden(err):
		return nil, status.Error(codes.PermissionDenied, ErrForbidden.Error())
	default:
		return nil, status.Errorf(codes.Internal, "authorize: %v", err)
	}
}
