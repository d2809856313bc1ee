package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/notify"
)

const testPassword = "Passw0rd!"

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingNotifier) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func testConfig() Config {
	cfg := validConfig()
	cfg.Password.SaltRounds = bcrypt.MinCost
	cfg.Notifier.DropIfFull = false
	return cfg
}

func newTestEngine(t *testing.T, store UserStore) (*Engine, *recordingNotifier) {
	t.Helper()

	n := &recordingNotifier{}
	e, err := New().
		WithConfig(testConfig()).
		WithUserStore(store).
		WithNotifier(n).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e, n
}

func testProfile() account.Profile {
	return account.Profile{
		Type:        account.UserTypeIndividual,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Country:     "FR",
		PhonePrefix: "+33",
		PhoneNumber: "612345678",
	}
}

func mustRegister(t *testing.T, e *Engine, email string) *Result {
	t.Helper()

	res, err := e.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: testPassword,
		Profile:  testProfile(),
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return res
}

// storedAccount reads the account straight from the store, including the
// codes that are never returned to callers.
func storedAccount(t *testing.T, store UserStore, email string) *account.Account {
	t.Helper()

	a, err := store.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("FindByEmail(%v) failed: %v", email, err)
	}
	return a
}

func mustRegisterVerified(t *testing.T, e *Engine, store UserStore, email string) *Result {
	t.Helper()

	mustRegister(t, e, email)
	code := storedAccount(t, store, email).VerifyToken
	res, err := e.VerifyEmail(context.Background(), email, code)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return res
}

func TestBuildRequiresStore(t *testing.T) {
	_, err := New().WithConfig(testConfig()).Build()
	if err == nil {
		t.Fatal("expected error without user store")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret

	_, err := New().WithConfig(cfg).WithUserStore(account.NewMemoryStore()).Build()
	if err == nil {
		t.Fatal("expected error for identical secrets")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithUserStore(account.NewMemoryStore())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestZeroEngineNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.Login(context.Background(), "a@b.com", testPassword); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}

	e = &Engine{}
	if _, err := e.RefreshToken(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestLoginFailureOrder(t *testing.T) {
	store := account.NewMemoryStore()
	e, _ := newTestEngine(t, store)
	ctx := context.Background()

	mustRegister(t, e, "a@b.com")

	if _, err := e.Login(ctx, "a@b.com", "Wr0ngPass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := e.Login(ctx, "nobody@b.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := e.Login(ctx, "a@b.com", testPassword); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}

	code := storedAccount(t, store, "a@b.com").VerifyToken
	if _, err := e.VerifyEmail(ctx, "a@b.com", code); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	id := storedAccount(t, store, "a@b.com").ID
	if _, err := store.Update(ctx, id, account.Patch{IsActive: account.Set(false)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := e.Login(ctx, "a@b.com", "Wr0ngPass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected credentials to be checked first, got %v", err)
	}
	if _, err := e.Login(ctx, "a@b.com", testPassword); !errors.Is(err, ErrUserNotActive) {
		t.Fatalf("expected ErrUserNotActive, got %v", err)
	}
}

func TestLoginIssuesRotatableSession(t *testing.T) {
	store := account.NewMemoryStore()
	e, _ := newTestEngine(t, store)
	ctx := context.Background()

	mustRegisterVerified(t, e, store, "a@b.com")

	res, err := e.Login(ctx, "a@b.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Message != "Login successful" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if res.Tokens == nil || res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", res.Tokens)
	}

	p, err := e.Authenticate(ctx, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.Claims.Subject != res.Account.ID || p.Claims.Email != "a@b.com" || p.Claims.Role != "USER" {
		t.Fatalf("unexpected claims %+v", p.Claims)
	}
	if p.Account.PasswordDigest == testPassword {
		t.Fatal("password stored in clear")
	}

	if _, err := e.Authenticate(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not authenticate, got %v", err)
	}
}

func TestRefreshRotationRejectsReplay(t *testing.T) {
	store := account.NewMemoryStore()
	e, _ := newTestEngine(t, store)
	ctx := context.Background()

	mustRegisterVerified(t, e, store, "a@b.com")
	login, err := e.Login(ctx, "a@b.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	first := login.Tokens.RefreshToken
	rotated, err := e.RefreshToken(ctx, first)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if rotated.Tokens.RefreshToken == first {
		t.Fatal("expected a new refresh token")
	}

	if _, err := e.RefreshToken(ctx, first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on replay, got %v", err)
	}
	if _, err := e.RefreshToken(ctx, rotated.Tokens.RefreshToken); err != nil {
		t.Fatalf("rotated token should still work: %v", err)
	}

	if e.MetricsSnapshot().Counters[MetricRefreshReuseDetected] != 1 {
		t.Fatalf("expected one reuse detection, got %d", e.MetricsSnapshot().Counters[MetricRefreshReuseDetected])
	}
}

func TestRefreshRejectsGarbageAndAccessTokens(t *testing.T) {
	store := account.NewMemoryStore()
	e, _ := newTestEngine(t, store)
	ctx := context.Background()

	res := mustRegisterVerified(t, e, store, "a@b.com")

	if _, err := e.RefreshToken(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := e.RefreshToken(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	store := account.NewMemoryStore()
	e, _ := newTestEngine(t, store)
	ctx := context.Background()

	res := mustRegisterVerified(t, e, store, "a@b.com")

	out, err := e.Logout(ctx, res.Account.ID)
	if err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if out.Message != "Logged out successfully" {
		t.Fatalf("unexpected message %q", out.Message)
	}
	if _, err := e.RefreshToken(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
	if _, err := e.Logout(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMailFailureDoesNotFailRequest(t *testing.T) {
	store := account.NewMemoryStore()
	n := &recordingNotifier{err: errors.New("smtp down")}
	e, err := New().WithConfig(testConfig()).WithUserStore(store).WithNotifier(n).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := e.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: testPassword}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	e.Close()

	sent, failed, _ := e.NotifierStats()
	if sent != 0 || failed != 1 {
		t.Fatalf("expected one failed delivery, got sent=%d failed=%d", sent, failed)
	}
}

func TestClientIPContext(t *testing.T) {
	if got := clientIPFromContext(context.Background()); got != "-" {
		t.Fatalf("expected placeholder, got %q", got)
	}
	ctx := WithClientIP(context.Background(), "10.0.0.1")
	if got := clientIPFromContext(ctx); got != "10.0.0.1" {
		t.Fatalf("unexpected ip %q", got)
	}
}

func TestHumanDuration(t *testing.T) {
	cases := map[string]string{
		"15m": "15 minutes",
		"1h":  "1 hour",
		"2h":  "2 hours",
		"1m":  "1 minute",
		"90s": "1m30s",
	}
	for in, want := range cases {
		d, _ := time.ParseDuration(in)
		if got := humanDuration(d); got != want {
			t.Fatalf("humanDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
