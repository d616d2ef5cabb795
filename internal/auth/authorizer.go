package auth

import (
	"context"
	"errors"
	"fmt"

	"tradeSite/models"
)

var (
	// ErrUnauthenticated covers every reason a caller is not a live, valid
	// account. Its message is the only one clients see for that class.
	ErrUnauthenticated = errors.New("Not authorized to access this route")
	// ErrRoleChanged means the token's role no longer matches the account.
	// It belongs to the authentication class: the client must log in again.
	ErrRoleChanged = errors.New("Role has changed, please log in again")
	// ErrForbidden means the live role is outside the allowed set.
	ErrForbidden = errors.New("Not authorized to perform this action")
)

// IsAuthentication reports whether err should surface as 401 / Unauthenticated.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrRoleChanged)
}

// IsForbidden reports whether err should surface as 403 / PermissionDenied.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// Capability is a set of roles allowed to perform an operation.
type Capability struct {
	Name  string
	roles map[string]struct{}
}

// NewCapability builds a named role set.
func NewCapability(name string, roles ...string) Capability {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return Capability{Name: name, roles: set}
}

// Allows reports whether role is in the set.
func (c Capability) Allows(role string) bool {
	_, ok := c.roles[role]
	return ok
}

var (
	AnyAccount     = NewCapability("any-account", models.RoleAdmin, models.RoleEditor, models.RoleViewer)
	ContentEditors = NewCapability("content-editors", models.RoleAdmin, models.RoleEditor)
	AdminsOnly     = NewCapability("admins-only", models.RoleAdmin)
)

// PrincipalReader is the slice of the credential store the authorizer needs.
type PrincipalReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authorizer re-reads the account on every privileged request so role
// changes and deactivation take effect without revoking tokens.
type Authorizer struct {
	store PrincipalReader
}

func NewAuthorizer(store PrincipalReader) *Authorizer {
	return &Authorizer{store: store}
}

// Authorize returns the live account when p may act under allowed.
func (a *Authorizer) Authorize(ctx context.Context, p *Principal, allowed Capability) (*models.User, error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("%w: no principal", ErrUnauthenticated)
	}
	u, err := a.store.GetByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load principal %s: %w", p.ID, err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: principal %s not found", ErrUnauthenticated, p.ID)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: principal %s is deactivated", ErrUnauthenticated, p.ID)
	}
	if u.Role != p.Role {
		return nil, fmt.Errorf("%w: token role %q, live role %q", ErrRoleChanged, p.Role, u.Role)
	}
	if !allowed.Allows(u.Role) {
		return nil, fmt.Errorf("%w: role %q not in %s", ErrForbidden, u.Role, allowed.Name)
	}
	return u, nil
}
