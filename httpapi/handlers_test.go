package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bricola/authcore"
	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/internal/flows"
	"github.com/bricola/authcore/notify"
)

const testPassword = "Passw0rd!"

type harness struct {
	store  *account.MemoryStore
	engine *authcore.Engine
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := authcore.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret")
	cfg.JWT.RefreshSecret = []byte("refresh-secret")
	cfg.Password.SaltRounds = bcrypt.MinCost
	cfg.Notifier.DropIfFull = false

	store := account.NewMemoryStore()
	e, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(store).
		WithNotifier(notify.NoOp{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(e.Close)

	return &harness{
		store:  store,
		engine: e,
		router: NewRouter(e, Config{SecureCookies: true}),
	}
}

func (h *harness) do(t *testing.T, method, path string, body any, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, mod := range mods {
		mod(req)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatalf("no %v cookie in response", refreshCookieName)
	return nil
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"email":       email,
		"password":    testPassword,
		"type":        "INDIVIDUAL",
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"country":     "FR",
		"prefix":      "+33",
		"phoneNumber": 612345678,
	}
}

// signup registers and verifies email, returning the verify response.
func (h *harness) signup(t *testing.T, email string) *httptest.ResponseRecorder {
	t.Helper()

	rec := h.do(t, http.MethodPost, RouteRegister, registerBody(email))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	a, err := h.store.FindByEmail(context.Background(), email)
	require.NoError(t, err)

	rec = h.do(t, http.MethodPost, RouteVerifyEmail, map[string]any{
		"email": email,
		"token": a.VerifyToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec
}

func (h *harness) login(t *testing.T, email string) (string, *http.Cookie) {
	t.Helper()

	rec := h.do(t, http.MethodPost, RouteLogin, map[string]any{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["access_token"].(string), refreshCookie(t, rec)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)

	body := registerBody("not-an-email")
	delete(body, "lastName")
	rec := h.do(t, http.MethodPost, RouteRegister, body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	errs, ok := out["errors"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "lastName")
}

func TestRegisterMalformedBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, RouteRegister, bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterStatusMapping(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, RouteRegister, registerBody("ada@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, flows.MsgRegistered, decode(t, rec)["message"])

	rec = h.do(t, http.MethodPost, RouteRegister, registerBody("ada@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, authcore.ErrEmailAlreadyExists.Message, decode(t, rec)["message"])

	weak := registerBody("bob@example.com")
	weak["password"] = "password"
	rec = h.do(t, http.MethodPost, RouteRegister, weak)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, authcore.ErrWeakPassword.Message, decode(t, rec)["message"])

	rec = h.do(t, http.MethodPost, RouteLogin, map[string]any{
		"email":    "ada@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, authcore.ErrEmailNotVerified.Message, decode(t, rec)["message"])

	rec = h.do(t, http.MethodPost, RouteVerifyEmail, map[string]any{
		"email": "ada@example.com",
		"token": "zzzzz9",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmailSetsRefreshCookie(t *testing.T) {
	h := newHarness(t)

	rec := h.signup(t, "ada@example.com")

	out := decode(t, rec)
	assert.NotEmpty(t, out["access_token"])
	assert.NotContains(t, out, "refresh_token")

	c := refreshCookie(t, rec)
	assert.NotEmpty(t, c.Value)
	assert.Equal(t, refreshCookiePath, c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int(h.engine.RefreshTTL().Seconds()), c.MaxAge)
}

func TestLoginReturnsUser(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ada@example.com")

	rec := h.do(t, http.MethodPost, RouteLogin, map[string]any{
		"email":    "ada@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	user, ok := out["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "PasswordDigest")
	assert.NotContains(t, user, "passwordDigest")

	rec = h.do(t, http.MethodPost, RouteLogin, map[string]any{
		"email":    "ada@example.com",
		"password": "Wr0ng!pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, authcore.ErrInvalidCredentials.Message, decode(t, rec)["message"])
}

func TestRefreshRequiresCookie(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, RouteRefresh, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Refresh token not found", decode(t, rec)["message"])
}

func TestRefreshRotatesCookie(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ada@example.com")
	_, first := h.login(t, "ada@example.com")

	rec := h.do(t, http.MethodPost, RouteRefresh, nil, withCookie(first))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["access_token"])
	second := refreshCookie(t, rec)
	assert.NotEqual(t, first.Value, second.Value)

	// The rotated-out token is dead and the cookie is cleared.
	rec = h.do(t, http.MethodPost, RouteRefresh, nil, withCookie(first))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, -1, refreshCookie(t, rec).MaxAge)

	rec = h.do(t, http.MethodPost, RouteRefresh, nil, withCookie(second))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ada@example.com")
	access, refresh := h.login(t, "ada@example.com")

	rec := h.do(t, http.MethodPost, RouteLogout, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, RouteLogout, nil, bearer(access))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, flows.MsgLoggedOut, decode(t, rec)["message"])
	assert.Equal(t, -1, refreshCookie(t, rec).MaxAge)

	rec = h.do(t, http.MethodPost, RouteRefresh, nil, withCookie(refresh))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The alias under the cookie path also works.
	_, _ = h.login(t, "ada@example.com")
	rec = h.do(t, http.MethodPost, RouteRefreshLogout, nil, bearer(access))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ada@example.com")

	rec := h.do(t, http.MethodPost, RouteForgot, map[string]any{"email": "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, RouteForgot, map[string]any{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a, err := h.store.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)

	rec = h.do(t, http.MethodPatch, RouteResetPassword, map[string]any{
		"email":       "ada@example.com",
		"token":       a.ResetToken,
		"newPassword": "N3w!Passw0rd",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["access_token"])
	refreshCookie(t, rec)

	rec = h.do(t, http.MethodPost, RouteLogin, map[string]any{
		"email":    "ada@example.com",
		"password": "N3w!Passw0rd",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResendVerification(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, RouteRegister, registerBody("ada@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodPost, RouteResend, map[string]any{"email": "ada@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	h.signup(t, "bob@example.com")
	rec = h.do(t, http.MethodPost, RouteResend, map[string]any{"email": "bob@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, authcore.ErrEmailAlreadyVerified.Message, decode(t, rec)["message"])
}

func TestMeAndChangeEmail(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ada@example.com")
	h.signup(t, "bob@example.com")
	access, _ := h.login(t, "ada@example.com")

	rec := h.do(t, http.MethodGet, RouteMe, nil, bearer(access))
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])

	rec = h.do(t, http.MethodPost, RouteChangeEmail, map[string]any{"newEmail": "bob@example.com"}, bearer(access))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, RouteChangeEmail, map[string]any{"newEmail": "ada@new.example.com"}, bearer(access))
	require.Equal(t, http.StatusOK, rec.Code)

	a, err := h.store.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@new.example.com", a.PendingNewEmail)

	rec = h.do(t, http.MethodPost, RouteVerifyEmail, map[string]any{
		"email": "ada@new.example.com",
		"token": a.VerifyToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, flows.MsgEmailChanged, decode(t, rec)["message"])
}

func TestAccountStatusRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ada@example.com")
	userAccess, _ := h.login(t, "ada@example.com")
	target, err := h.store.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)

	digest, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = h.store.Create(context.Background(), &account.Account{
		ID:             "admin-1",
		Email:          "admin@example.com",
		PasswordDigest: string(digest),
		EmailVerified:  true,
		Role:           account.RoleAdmin,
		IsActive:       true,
	})
	require.NoError(t, err)
	adminAccess, _ := h.login(t, "admin@example.com")

	path := "/users/" + target.ID + "/status"
	body := map[string]any{"active": false, "motive": "chargeback"}

	rec := h.do(t, http.MethodPatch, path, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPatch, path, body, bearer(userAccess))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPatch, path, map[string]any{"motive": "x"}, bearer(adminAccess))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPatch, "/users/missing/status", body, bearer(adminAccess))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodPatch, path, body, bearer(adminAccess))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, flows.MsgAccountDeactivated, out["message"])
	assert.Equal(t, false, out["user"].(map[string]any)["isActive"])

	// The deactivated user's access token is now refused.
	rec = h.do(t, http.MethodGet, RouteMe, nil, bearer(userAccess))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, RouteMetrics, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	router := NewRouter(h.engine, Config{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RouteMetrics, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1:5555", remoteAddr(r))
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9 via 10.0.0.1:5555", remoteAddr(r))
}
