package auth

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradeSite/internal/logging"
	"tradeSite/internal/testutil"
	"tradeSite/models"
	"tradeSite/repository"
)

func TestUnaryAuthInterceptor(t *testing.T) {
	_, authn := newPair(t)
	interceptor := NewUnaryAuthInterceptor(authn, logging.Discard(), "/health")

	// Allowlisted path: no header, handler runs without a principal.
	hCalled := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/health"}, func(ctx context.Context, req any) (any, error) {
		hCalled = true
		if _, ok := FromContext(ctx); ok {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return 123, nil
	})
	if err != nil || !hCalled {
		t.Fatalf("allowlisted handler err=%v called=%v", err, hCalled)
	}

	// Authenticated path: principal injected.
	tok := testutil.GenerateToken(t, testSecret, "u-7", "editor", time.Hour)
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, func(ctx context.Context, req any) (any, error) {
		p, ok := FromContext(ctx)
		if !ok || p.ID != "u-7" || p.Role != "editor" {
			t.Fatalf("principal not injected: %+v ok=%v", p, ok)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor auth path: %v", err)
	}

	// Missing and garbage headers are indistinguishable to the caller.
	handler := func(context.Context, any) (any, error) {
		t.Fatalf("handler must not run")
		return nil, nil
	}
	_, errMissing := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, handler)
	_, errGarbage := interceptor(testutil.CtxWithBearer(context.Background(), "garbage"), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, handler)
	for _, e := range []error{errMissing, errGarbage} {
		if status.Code(e) != codes.Unauthenticated {
			t.Fatalf("want Unauthenticated, got %v", e)
		}
	}
	if errMissing.Error() != errGarbage.Error() {
		t.Fatalf("responses differ: %q vs %q", errMissing, errGarbage)
	}
}

func TestRequireRoles_StatusMapping(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, testutil.DBName(t))
	users := repository.NewUserRepository(d)
	authz := NewAuthorizer(users)
	ctx := context.Background()

	editor := seedUser(t, users, "ed", models.RoleEditor)

	if _, err := RequireRoles(ctx, authz, AdminsOnly); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("no principal: %v", err)
	}

	pctx := WithPrincipal(ctx, &Principal{ID: editor.ID, Role: models.RoleEditor})
	if _, err := RequireRoles(pctx, authz, AdminsOnly); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("editor on admin op: %v", err)
	}
	if _, err := RequireRoles(pctx, authz, ContentEditors); err != nil {
		t.Fatalf("editor on editor op: %v", err)
	}

	if err := users.UpdateRole(ctx, editor.ID, models.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}
	_, err := RequireRoles(pctx, authz, AdminsOnly)
	if status.Code(err) != codes.Unauthenticated || status.Convert(err).Message() != ErrRoleChanged.Error() {
		t.Fatalf("stale role after promotion: %v", err)
	}
}
