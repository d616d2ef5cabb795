package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tradeSite/internal/auth"
	"tradeSite/internal/logging"
	"tradeSite/internal/testutil"
	"tradeSite/models"
	"tradeSite/repository"
)

const testSecret = "accounts-secret"

func newService(t *testing.T) (*Service, *repository.UserRepository, *auth.Authenticator) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, testutil.DBName(t))
	users := repository.NewUserRepository(d)
	cfg := auth.TokenConfig{Secret: testSecret, TTL: time.Hour}
	iss, err := auth.NewIssuer(cfg)
	require.NoError(t, err)
	authn, err := auth.NewAuthenticator(cfg)
	require.NoError(t, err)
	return NewService(users, iss, logging.Discard()), users, authn
}

func TestLogin_IssuesTokenWithLiveRole(t *testing.T) {
	svc, users, authn := newService(t)
	ctx := context.Background()

	created, err := svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "ed", Email: "ed@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, created.Role)
	assert.NotEqual(t, "secret1", created.PasswordHash)

	sess, err := svc.Login(ctx, LoginRequest{Email: "ED@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, sess.User.LastLogin)

	p, err := authn.Authenticate("Bearer " + sess.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID)
	assert.Equal(t, models.RoleEditor, p.Role)

	stored, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)

	// After a role change, a fresh login carries the new role.
	_, err = svc.SetRole(ctx, created.ID, models.RoleViewer)
	require.NoError(t, err)
	sess, err = svc.Login(ctx, LoginRequest{Email: "ed@example.com", Password: "secret1"})
	require.NoError(t, err)
	p, err = authn.Authenticate("Bearer " + sess.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, p.Role)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	u, err := svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "gone", Email: "gone@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "gone@example.com", Password: "wrong!!"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginRequest{Email: "gone@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmailStillComparesPassword(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	u, err := svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "kim", Email: "kim@example.com", Password: "secret1"})
	require.NoError(t, err)

	var hashes []string
	svc.checkPassword = func(hash, plain string) bool {
		hashes = append(hashes, hash)
		return auth.CheckPassword(hash, plain)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "kim@example.com", Password: "wrong!!"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, hashes, 2, "both failures run one bcrypt comparison")
	assert.Equal(t, decoyHash(), hashes[0])
	assert.Equal(t, u.PasswordHash, hashes[1])
	cost, err := bcrypt.Cost([]byte(hashes[0]))
	require.NoError(t, err)
	assert.Equal(t, auth.PasswordCost, cost)
}

func TestProfileAndPassword(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	u, err := svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "amy", Email: "amy@example.com", Password: "secret1", Role: models.RoleAdmin})
	require.NoError(t, err)

	up, err := svc.UpdateProfile(ctx, u.ID, ProfileRequest{Username: " amy2 ", Avatar: "/uploads/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "amy2", up.Username)
	assert.Equal(t, "/uploads/a.png", up.Avatar)

	_, err = svc.UpdateProfile(ctx, u.ID, ProfileRequest{Username: ""})
	require.Error(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, u.ID, PasswordRequest{CurrentPassword: "nope", NewPassword: "newpass"}), ErrWrongPassword)
	require.Error(t, svc.ChangePassword(ctx, u.ID, PasswordRequest{CurrentPassword: "secret1", NewPassword: "short"}))
	require.NoError(t, svc.ChangePassword(ctx, u.ID, PasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass"}))

	_, err = svc.Login(ctx, LoginRequest{Email: "amy@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "amy@example.com", Password: "newpass"})
	require.NoError(t, err)
}

func TestAdminOperations(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "a", Email: "a@example.com", Password: "secret1", Role: "root"})
	require.Error(t, err)

	a, err := svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "a", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.CreatePrincipal(ctx, CreatePrincipalRequest{Username: "a", Email: "b@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrUserExists)

	_, err = svc.SetRole(ctx, a.ID, "")
	require.Error(t, err)
	_, err = svc.SetRole(ctx, "missing", models.RoleAdmin)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.SetActive(ctx, "missing", false)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestValidationErrorsAreClassified(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "bad", Password: ""})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetRole(context.Background(), "x", "root")
	require.ErrorIs(t, err, ErrInvalidInput)
}
