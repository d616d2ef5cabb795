package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"tradeSite/internal/auth"
	"tradeSite/models"
)

// CreatePrincipalRequest is the administrative account creation payload.
type CreatePrincipalRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r CreatePrincipalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required"), validation.Length(1, 50)),
		validation.Field(&r.Email, validation.Required.Error("Valid email is required"), is.Email.Error("Valid email is required")),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 0).Error("Password must be at least 6 characters")),
		validation.Field(&r.Role, validation.By(checkRole)),
	)
}

func checkRole(v interface{}) error {
	role, _ := v.(string)
	if role != "" && !models.ValidRole(role) {
		return errors.New("unknown role")
	}
	return nil
}

// CreatePrincipal adds an active account. Role defaults to editor.
func (s *Service) CreatePrincipal(ctx context.Context, req CreatePrincipalRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Info(ctx, "principal created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// SetRole changes the account role. Tokens issued under the old role stop
// authorizing on their next use.
func (s *Service) SetRole(ctx context.Context, id, role string) (*models.User, error) {
	if err := validation.Validate(role, validation.Required, validation.By(checkRole)); err != nil {
		return nil, invalid(fmt.Errorf("role: %w", err))
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Info(ctx, "principal role changed", "user_id", id, "role", role)
	return s.get(ctx, id)
}

// SetActive enables or disables an account. Disabling is the removal path.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Info(ctx, "principal active flag changed", "user_id", id, "active", active)
	return s.get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.users.List(ctx, limit, offset)
}
