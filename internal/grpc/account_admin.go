package grpcserver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"tradeSite/internal/accounts"
	"tradeSite/internal/auth"
	"tradeSite/internal/logging"
	"tradeSite/models"
)

// AccountAdminServiceName is the fully qualified gRPC service name.
const AccountAdminServiceName = "tradesite.admin.v1.AccountAdmin"

const (
	maxPageSize     = 100
	defaultPageSize = 20
)

// AccountAdminServer is the administrative principal-management service.
// Messages are google.protobuf.Struct values.
type AccountAdminServer interface {
	CreatePrincipal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPrincipals(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAccountAdminServer registers impl on s.
func RegisterAccountAdminServer(s grpc.ServiceRegistrar, impl AccountAdminServer) {
	s.RegisterService(&accountAdminServiceDesc, impl)
}

var accountAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountAdminServiceName,
	HandlerType: (*AccountAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreatePrincipal", Handler: unaryHandler("CreatePrincipal", AccountAdminServer.CreatePrincipal)},
		{MethodName: "SetRole", Handler: unaryHandler("SetRole", AccountAdminServer.SetRole)},
		{MethodName: "SetActive", Handler: unaryHandler("SetActive", AccountAdminServer.SetActive)},
		{MethodName: "ListPrincipals", Handler: unaryHandler("ListPrincipals", AccountAdminServer.ListPrincipals)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tradesite/admin/v1/account_admin.proto",
}

type structCall func(AccountAdminServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call structCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + AccountAdminServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountAdminServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountAdminServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AccountAdmin implements AccountAdminServer. Every method requires a live admin.
type AccountAdmin struct {
	Accounts *accounts.Service
	Authz    *auth.Authorizer
	Log      logging.Logger
}

var _ AccountAdminServer = (*AccountAdmin)(nil)

// CreatePrincipal adds an account: {username, email, password, role?}.
func (s *AccountAdmin) CreatePrincipal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	admin, err := auth.RequireRoles(ctx, s.Authz, auth.AdminsOnly)
	if err != nil {
		return nil, err
	}
	u, err := s.Accounts.CreatePrincipal(ctx, accounts.CreatePrincipalRequest{
		Username: stringField(req, "username"),
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
		Role:     stringField(req, "role"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	s.Log.Info(ctx, "admin created principal", "admin_id", admin.ID, "user_id", u.ID)
	return principalStruct(u)
}

// SetRole changes a principal's role: {id, role}.
func (s *AccountAdmin) SetRole(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	admin, err := auth.RequireRoles(ctx, s.Authz, auth.AdminsOnly)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(stringField(req, "id"))
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	u, err := s.Accounts.SetRole(ctx, id, stringField(req, "role"))
	if err != nil {
		return nil, toStatus(err)
	}
	s.Log.Info(ctx, "admin changed role", "admin_id", admin.ID, "user_id", u.ID, "role", u.Role)
	return principalStruct(u)
}

// SetActive enables or disables a principal: {id, active}.
func (s *AccountAdmin) SetActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	admin, err := auth.RequireRoles(ctx, s.Authz, auth.AdminsOnly)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(stringField(req, "id"))
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	v, ok := req.GetFields()["active"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "active is required")
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return nil, status.Error(codes.InvalidArgument, "active must be a boolean")
	}
	u, err := s.Accounts.SetActive(ctx, id, v.GetBoolValue())
	if err != nil {
		return nil, toStatus(err)
	}
	s.Log.Info(ctx, "admin changed active flag", "admin_id", admin.ID, "user_id", u.ID, "active", u.IsActive)
	return principalStruct(u)
}

// ListPrincipals pages through accounts: {page_size?, page_token?}.
// page_token is the decimal offset returned as next_page_token.
func (s *AccountAdmin) ListPrincipals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireRoles(ctx, s.Authz, auth.AdminsOnly); err != nil {
		return nil, err
	}
	size := int(req.GetFields()["page_size"].GetNumberValue())
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	var offset int
	if t := strings.TrimSpace(stringField(req, "page_token")); t != "" {
		v, err := strconv.Atoi(t)
		if err != nil || v < 0 {
			return nil, status.Error(codes.InvalidArgument, "invalid page_token")
		}
		offset = v
	}

	list, err := s.Accounts.List(ctx, size, offset)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list principals: %v", err)
	}
	out := make([]any, 0, len(list))
	for i := range list {
		out = append(out, principalMap(&list[i]))
	}
	resp := map[string]any{"principals": out}
	if len(list) == size {
		resp["next_page_token"] = strconv.Itoa(offset + size)
	}
	st, err := structpb.NewStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func principalMap(u *models.User) map[string]any {
	m := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.Avatar != "" {
		m["avatar"] = u.Avatar
	}
	if u.LastLogin != nil {
		m["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return m
}

func principalStruct(u *models.User) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(map[string]any{"principal": principalMap(u)})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode principal: %v", err)
	}
	return st, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, accounts.ErrUserExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, accounts.ErrNotFound):
		return status.Error(codes.NotFound, "principal not found")
	default:
		return status.Errorf(codes.Internal, "account operation: %v", err)
	}
}
