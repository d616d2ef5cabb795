package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeSite/internal/accounts"
	"tradeSite/internal/auth"
	"tradeSite/internal/config"
	"tradeSite/internal/logging"
	"tradeSite/internal/testutil"
	"tradeSite/models"
	"tradeSite/repository"
)

const testSecret = "http-test-secret"

type harness struct {
	app      *fiber.App
	users    *repository.UserRepository
	accounts *accounts.Service
}

type response struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Token      string          `json:"token"`
	Pagination *pagination     `json:"pagination"`
	Errors     json.RawMessage `json:"errors"`
	Error      string          `json:"error"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, testutil.DBName(t))
	users := repository.NewUserRepository(d)
	tokens := auth.TokenConfig{Secret: testSecret, TTL: time.Hour}
	iss, err := auth.NewIssuer(tokens)
	require.NoError(t, err)
	authn, err := auth.NewAuthenticator(tokens)
	require.NoError(t, err)
	log := logging.Discard()
	svc := accounts.NewService(users, iss, log)

	cfg := &config.Config{
		Env:  "test",
		HTTP: config.HTTPConfig{Port: 5000, CORSOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
	}
	srv := NewServer(Deps{
		Config:   cfg,
		Log:      log,
		Authn:    authn,
		Authz:    auth.NewAuthorizer(users),
		Accounts: svc,
		Products: repository.NewProductRepository(d),
		News:     repository.NewNewsRepository(d),
		Contacts: repository.NewContactRepository(d),
		Settings: repository.NewSettingsRepository(d),
	})
	return &harness{app: srv.App(), users: users, accounts: svc}
}

func (h *harness) seed(t *testing.T, name, role string) *models.User {
	t.Helper()
	u, err := h.accounts.CreatePrincipal(context.Background(), accounts.CreatePrincipalRequest{
		Username: name, Email: name + "@example.com", Password: "password1", Role: role,
	})
	require.NoError(t, err)
	return u
}

func (h *harness) login(t *testing.T, name string) string {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": name + "@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, status, body.Message)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (h *harness) do(t *testing.T, method, path, token string, payload any) (int, response) {
	t.Helper()
	status, raw := h.raw(t, method, path, "Bearer "+token, payload, token != "")
	var out response
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return status, out
}

func (h *harness) raw(t *testing.T, method, path, authHeader string, payload any, withAuth bool) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func productPayload(name string) map[string]any {
	return map[string]any{
		"name":        map[string]string{"zh": name, "en": name},
		"description": map[string]string{"zh": "描述", "en": "desc"},
		"category":    "machinery",
		"images":      []string{"/uploads/" + name + ".jpg"},
		"featured":    true,
	}
}

func TestHealthAndRegister(t *testing.T) {
	h := newHarness(t)

	status, raw := h.raw(t, http.MethodGet, "/api/health", "", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","message":"Server is running"}`, string(raw))

	st, body := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "x", "email": "x@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusForbidden, st)
	assert.Equal(t, "Self-registration is disabled", body.Message)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	u := h.seed(t, "alice", models.RoleEditor)

	token := h.login(t, "alice")
	status, body := h.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &me))
	assert.Equal(t, u.ID, me["id"])
	assert.Equal(t, "editor", me["role"])
	assert.NotContains(t, me, "passwordHash")
	assert.NotContains(t, me, "password_hash")

	for _, creds := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password1"},
	} {
		status, body = h.do(t, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid credentials", body.Message)
	}

	status, body = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body.Errors)
}

func TestProtect_MissingHeaderMatchesGarbageToken(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "alice", models.RoleAdmin)

	missingStatus, missing := h.raw(t, http.MethodGet, "/api/auth/me", "", nil, false)
	garbageStatus, garbage := h.raw(t, http.MethodGet, "/api/auth/me", "Bearer garbage", nil, true)
	schemeStatus, scheme := h.raw(t, http.MethodGet, "/api/auth/me", "Token abc", nil, true)
	expiredStatus, expired := h.raw(t, http.MethodGet, "/api/auth/me",
		"Bearer "+testutil.GenerateToken(t, testSecret, "someone", "admin", -time.Minute), nil, true)

	for _, s := range []int{missingStatus, garbageStatus, schemeStatus, expiredStatus} {
		assert.Equal(t, http.StatusUnauthorized, s)
	}
	assert.Equal(t, string(missing), string(garbage))
	assert.Equal(t, string(missing), string(scheme))
	assert.Equal(t, string(missing), string(expired))
	assert.JSONEq(t, `{"success":false,"message":"Not authorized to access this route"}`, string(missing))
}

func TestEditorDemotionScenario(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "root", models.RoleAdmin)
	editor := h.seed(t, "editor1", models.RoleEditor)
	ctx := context.Background()

	editorToken := h.login(t, "editor1")
	status, body := h.do(t, http.MethodPost, "/api/products", editorToken, productPayload("pump"))
	require.Equal(t, http.StatusCreated, status, body.Message)

	_, err := h.accounts.SetRole(ctx, editor.ID, models.RoleViewer)
	require.NoError(t, err)

	// The old token still says editor; the live role wins.
	status, body = h.do(t, http.MethodPost, "/api/products", editorToken, productPayload("valve"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Role has changed, please log in again", body.Message)
	status, _ = h.do(t, http.MethodGet, "/api/auth/me", editorToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	viewerToken := h.login(t, "editor1")
	status, body = h.do(t, http.MethodPost, "/api/products", viewerToken, productPayload("valve"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized to perform this action", body.Message)

	status, _ = h.do(t, http.MethodGet, "/api/auth/me", viewerToken, nil)
	assert.Equal(t, http.StatusOK, status)

	// Only one product was created.
	status, body = h.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 1, body.Pagination.Total)
}

func TestDeleteProduct_RequiresAdminBeforeLookup(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "root", models.RoleAdmin)
	h.seed(t, "ed", models.RoleEditor)
	adminToken := h.login(t, "root")
	editorToken := h.login(t, "ed")

	status, body := h.do(t, http.MethodPost, "/api/products", editorToken, productPayload("lathe"))
	require.Equal(t, http.StatusCreated, status)
	var p models.Product
	require.NoError(t, json.Unmarshal(body.Data, &p))

	status, _ = h.do(t, http.MethodDelete, "/api/products/"+p.ID, editorToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(t, http.MethodDelete, "/api/products/does-not-exist", editorToken, nil)
	assert.Equal(t, http.StatusForbidden, status, "authorization runs before the resource lookup")

	status, body = h.do(t, http.MethodDelete, "/api/products/"+p.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product deleted successfully", body.Message)
	status, _ = h.do(t, http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func newsPayload(title string) map[string]any {
	return map[string]any{
		"title":    map[string]string{"zh": title, "en": title},
		"content":  map[string]string{"zh": "内容", "en": "body"},
		"category": "company",
	}
}

func TestNewsCapabilities(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "root", models.RoleAdmin)
	h.seed(t, "ed", models.RoleEditor)
	h.seed(t, "vic", models.RoleViewer)
	adminToken := h.login(t, "root")
	editorToken := h.login(t, "ed")
	viewerToken := h.login(t, "vic")

	status, _ := h.do(t, http.MethodPost, "/api/news", "", newsPayload("anon"))
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = h.do(t, http.MethodPost, "/api/news", viewerToken, newsPayload("viewer"))
	assert.Equal(t, http.StatusForbidden, status)

	status, body := h.do(t, http.MethodPost, "/api/news", editorToken, newsPayload("launch"))
	require.Equal(t, http.StatusCreated, status, body.Message)
	var n models.News
	require.NoError(t, json.Unmarshal(body.Data, &n))
	assert.Equal(t, "Admin", n.Author)
	assert.Equal(t, models.NewsStatusPublished, n.Status)

	edit := newsPayload("launch day")
	edit["status"] = "draft"
	status, body = h.do(t, http.MethodPut, "/api/news/"+n.ID, editorToken, edit)
	require.Equal(t, http.StatusOK, status, body.Message)
	status, body = h.do(t, http.MethodPut, "/api/news/"+n.ID, editorToken, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body.Errors)

	status, _ = h.do(t, http.MethodDelete, "/api/news/"+n.ID, editorToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(t, http.MethodDelete, "/api/news/does-not-exist", editorToken, nil)
	assert.Equal(t, http.StatusForbidden, status, "authorization runs before the resource lookup")

	status, body = h.do(t, http.MethodDelete, "/api/news/"+n.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "News deleted successfully", body.Message)
	status, body = h.do(t, http.MethodGet, "/api/news/"+n.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "News not found", body.Message)
}

func TestNewsPublicReads(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "ed", models.RoleEditor)
	editorToken := h.login(t, "ed")

	var created models.News
	for _, title := range []string{"one", "two"} {
		status, body := h.do(t, http.MethodPost, "/api/news", editorToken, newsPayload(title))
		require.Equal(t, http.StatusCreated, status, body.Message)
		require.NoError(t, json.Unmarshal(body.Data, &created))
	}
	draft := newsPayload("hidden")
	draft["status"] = "draft"
	status, _ := h.do(t, http.MethodPost, "/api/news", editorToken, draft)
	require.Equal(t, http.StatusCreated, status)

	status, body := h.do(t, http.MethodGet, "/api/news", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 2, body.Pagination.Total)

	status, body = h.do(t, http.MethodGet, "/api/news/latest?limit=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	var latest []models.News
	require.NoError(t, json.Unmarshal(body.Data, &latest))
	assert.Len(t, latest, 1)

	for want := 0; want < 2; want++ {
		status, body = h.do(t, http.MethodGet, "/api/news/"+created.ID, "", nil)
		require.Equal(t, http.StatusOK, status)
		var got models.News
		require.NoError(t, json.Unmarshal(body.Data, &got))
		assert.Equal(t, want, got.Views, "the response shows the count before this read")
	}
}

func TestDeactivatedAccountIsRejected(t *testing.T) {
	h := newHarness(t)
	u := h.seed(t, "temp", models.RoleAdmin)
	token := h.login(t, "temp")

	_, err := h.accounts.SetActive(context.Background(), u.ID, false)
	require.NoError(t, err)

	status, _ := h.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, status)
	status, body := h.do(t, http.MethodPut, "/api/settings", token, map[string]any{"phone": "1"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized to access this route", body.Message)

	status, body = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "temp@example.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body.Message)
}

func TestProfileAndPasswordRoutes(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "vic", models.RoleViewer)
	token := h.login(t, "vic")

	status, body := h.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{"username": "victor", "avatar": "/uploads/v.png"})
	require.Equal(t, http.StatusOK, status, body.Message)
	var u models.User
	require.NoError(t, json.Unmarshal(body.Data, &u))
	assert.Equal(t, "victor", u.Username)

	status, body = h.do(t, http.MethodPut, "/api/auth/password", token, map[string]string{"currentPassword": "nope", "newPassword": "password2"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Current password is incorrect", body.Message)

	status, _ = h.do(t, http.MethodPut, "/api/auth/password", token, map[string]string{"currentPassword": "password1", "newPassword": "123"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = h.do(t, http.MethodPut, "/api/auth/password", token, map[string]string{"currentPassword": "password1", "newPassword": "password2"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Password updated successfully", body.Message)
}

func TestContactsAndSettings(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "root", models.RoleAdmin)
	h.seed(t, "ed", models.RoleEditor)
	h.seed(t, "vic", models.RoleViewer)
	adminToken := h.login(t, "root")
	editorToken := h.login(t, "ed")
	viewerToken := h.login(t, "vic")

	status, body := h.do(t, http.MethodPost, "/api/contacts", "", map[string]string{
		"name": "Li", "email": "li@example.com", "phone": "123", "subject": "quote", "message": "hello",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var msg models.Contact
	require.NoError(t, json.Unmarshal(body.Data, &msg))
	assert.Equal(t, models.ContactStatusUnread, msg.Status)

	status, _ = h.do(t, http.MethodPost, "/api/contacts", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodGet, "/api/contacts", viewerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, body = h.do(t, http.MethodGet, "/api/contacts?status=unread", editorToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Pagination.Total)

	status, body = h.do(t, http.MethodPut, "/api/contacts/"+msg.ID, editorToken, map[string]string{"status": "replied", "reply": "sent"})
	require.Equal(t, http.StatusOK, status, body.Message)

	status, _ = h.do(t, http.MethodDelete, "/api/contacts/"+msg.ID, editorToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(t, http.MethodDelete, "/api/contacts/"+msg.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	update := map[string]any{
		"siteName":        map[string]string{"zh": "贸易", "en": "Trade"},
		"contact":         map[string]any{"email": "info@example.com", "fax": "+86 456"},
		"social":          map[string]string{"weibo": "trade_wb", "twitter": "@trade"},
		"banners":         []map[string]string{{"image": "/uploads/b1.jpg"}},
		"homepageContent": map[string]any{"hero": map[string]string{"title": "Hi"}},
	}
	status, _ = h.do(t, http.MethodPut, "/api/settings", editorToken, update)
	assert.Equal(t, http.StatusForbidden, status)
	status, body = h.do(t, http.MethodPut, "/api/settings", adminToken, update)
	require.Equal(t, http.StatusOK, status, body.Message)

	status, body = h.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, status)
	var st models.Settings
	require.NoError(t, json.Unmarshal(body.Data, &st))
	assert.Equal(t, "Trade", st.SiteName.En)
	assert.Equal(t, "info@example.com", st.Contact.Email)
	assert.Equal(t, "+86 456", st.Contact.Fax)
	assert.Equal(t, "trade_wb", st.Social.Weibo)
	assert.Equal(t, "@trade", st.Social.Twitter)
	assert.JSONEq(t, `[{"image":"/uploads/b1.jpg"}]`, string(st.Banners))
	assert.JSONEq(t, `{"hero":{"title":"Hi"}}`, string(st.HomepageContent))

	for _, bad := range []map[string]any{
		{"contact": map[string]string{"email": "not-an-email"}},
		{"banners": map[string]string{"image": "x"}},
		{"logo": "ftp://example.com/logo.png"},
	} {
		status, body = h.do(t, http.MethodPut, "/api/settings", adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, status, "%v", bad)
		assert.NotEmpty(t, body.Errors)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 30; i++ {
		status, _ := h.do(t, http.MethodPost, "/api/auth/register", "", nil)
		require.Equal(t, http.StatusForbidden, status)
	}
	status, body := h.do(t, http.MethodPost, "/api/auth/register", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many authentication requests, please try again later.", body.Message)

	// Other groups keep their own budget.
	status, _ = h.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
