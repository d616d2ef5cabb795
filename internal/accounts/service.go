package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"tradeSite/internal/auth"
	"tradeSite/internal/logging"
	"tradeSite/models"
	"tradeSite/repository"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// deactivated accounts alike.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrWrongPassword is returned by ChangePassword when the current password does not match.
	ErrWrongPassword = errors.New("Current password is incorrect")
	ErrNotFound      = errors.New("User not found")
	ErrUserExists    = errors.New("User already exists")
	// ErrInvalidInput wraps payload validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the part of the credential store the service uses.
type Store interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id, username, avatar string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id, role string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// Service implements login and account management on top of the credential store.
type Service struct {
	users         Store
	issuer        *auth.Issuer
	log           logging.Logger
	now           func() time.Time
	checkPassword func(hash, plain string) bool
}

func NewService(users Store, issuer *auth.Issuer, log logging.Logger) *Service {
	return &Service{
		users:         users,
		issuer:        issuer,
		log:           log.With("component", "accounts"),
		now:           time.Now,
		checkPassword: auth.CheckPassword,
	}
}

// decoyHash is compared against when the email is unknown, so a failed login
// costs one bcrypt comparison whether or not the account exists.
var decoyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("decoy-password-never-matches")
	if err != nil {
		panic(fmt.Sprintf("accounts: hash decoy password: %v", err))
	}
	return h
})

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("Valid email is required"), is.Email.Error("Valid email is required")),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login verifies credentials and issues a token carrying the live role.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		s.checkPassword(decoyHash(), req.Password)
		s.log.Warn(ctx, "login rejected", "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if !s.checkPassword(u.PasswordHash, req.Password) {
		s.log.Warn(ctx, "login rejected", "reason", "wrong password", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.log.Warn(ctx, "login rejected", "reason", "deactivated", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	tok, exp, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, at); err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}
	u.LastLogin = &at
	s.log.Info(ctx, "login", "user_id", u.ID, "role", u.Role)
	return &Session{Token: tok, ExpiresAt: exp, User: u}, nil
}

// ProfileRequest carries the self-service profile fields.
type ProfileRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (r ProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required"), validation.Length(1, 50)),
		validation.Field(&r.Avatar, validation.Length(0, 500)),
	)
}

// UpdateProfile changes username and avatar for the account id.
func (s *Service) UpdateProfile(ctx context.Context, id string, req ProfileRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.users.UpdateProfile(ctx, id, req.Username, req.Avatar); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.get(ctx, id)
}

// PasswordRequest carries a password change.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r PasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required.Error("Current password is required")),
		validation.Field(&r.NewPassword, validation.Required.Error("New password must be at least 6 characters"),
			validation.RuneLength(6, 0).Error("New password must be at least 6 characters")),
	)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, id string, req PasswordRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	u, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !s.checkPassword(u.PasswordHash, req.CurrentPassword) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return mapStoreErr(err)
	}
	s.log.Info(ctx, "password changed", "user_id", id)
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrUserExists
	default:
		return err
	}
}
