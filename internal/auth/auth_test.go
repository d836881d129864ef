package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/store"
	"github.com/joestump/link-library/internal/testutil"
)

type fakeProvider struct {
	identity *auth.Identity
	err      error
	gotCode  string
}

func (f *fakeProvider) AuthCodeURL(state, challenge string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state) + "&code_challenge=" + challenge
}

func (f *fakeProvider) Exchange(_ context.Context, code, _ string) (*auth.Identity, error) {
	f.gotCode = code
	return f.identity, f.err
}

type testEnv struct {
	DB         *sqlx.DB
	Logs       *observer.ObservedLogs
	Sessions   *scs.SessionManager
	Users      *store.UserStore
	Provider   *fakeProvider
	Handlers   *auth.Handlers
	Middleware *auth.Middleware
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	sm := scs.New()
	sm.Store = memstore.New()
	users := store.NewUserStore(db)
	p := &fakeProvider{identity: &auth.Identity{
		Issuer:  "https://idp.example.com",
		Subject: "sub-1",
		Email:   "alice@example.com",
		Name:    "Alice",
	}}
	core, logs := observer.New(zap.InfoLevel)
	return &testEnv{
		DB:         db,
		Logs:       logs,
		Sessions:   sm,
		Users:      users,
		Provider:   p,
		Handlers:   auth.NewHandlers(p, sm, users, false, nil),
		Middleware: auth.NewMiddleware(sm, users, zap.New(core)),
	}
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_RedirectsWithStateAndPKCE(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/auth/login?redirect=/api/v1/libraries", nil)
	rec := httptest.NewRecorder()
	env.Sessions.LoadAndSave(http.HandlerFunc(env.Handlers.Login)).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://idp.example.com/authorize?") {
		t.Errorf("location = %q", loc)
	}
	cookies := rec.Result().Cookies()
	for _, name := range []string{"__auth_state", "__auth_pkce", "__auth_redirect"} {
		if cookieNamed(cookies, name) == nil {
			t.Errorf("missing cookie %s", name)
		}
	}
	if c := cookieNamed(cookies, "__auth_redirect"); c != nil && c.Value != "/api/v1/libraries" {
		t.Errorf("redirect cookie = %q", c.Value)
	}
}

func TestLogin_RejectsOffsiteRedirect(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/auth/login?redirect=//evil.example.com", nil)
	rec := httptest.NewRecorder()
	env.Sessions.LoadAndSave(http.HandlerFunc(env.Handlers.Login)).ServeHTTP(rec, req)

	c := cookieNamed(rec.Result().Cookies(), "__auth_redirect")
	if c == nil || c.Value != "/" {
		t.Errorf("redirect cookie = %+v, want /", c)
	}
}

func callback(t *testing.T, env *testEnv, state, cookieState string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: "__auth_state", Value: cookieState})
	req.AddCookie(&http.Cookie{Name: "__auth_pkce", Value: "verifier"})
	req.AddCookie(&http.Cookie{Name: "__auth_redirect", Value: "/api/extension"})
	rec := httptest.NewRecorder()
	env.Sessions.LoadAndSave(http.HandlerFunc(env.Handlers.Callback)).ServeHTTP(rec, req)
	return rec
}

func TestCallback_SignsInAndProtectsRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := callback(t, env, "s1", "s1")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusFound, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/api/extension" {
		t.Errorf("location = %q, want /api/extension", loc)
	}
	if env.Provider.gotCode != "abc" {
		t.Errorf("exchanged code = %q, want abc", env.Provider.gotCode)
	}
	session := cookieNamed(rec.Result().Cookies(), env.Sessions.Cookie.Name)
	if session == nil {
		t.Fatal("missing session cookie")
	}

	user, err := env.Users.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	var seen string
	protected := env.Sessions.LoadAndSave(env.Middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.PrincipalFromContext(r.Context()).UserID
	})))

	req := httptest.NewRequest("GET", "/api/v1/libraries", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen != user.ID {
		t.Errorf("principal = %q, want %q", seen, user.ID)
	}
}

func TestCallback_StateMismatch(t *testing.T) {
	env := newTestEnv(t)
	rec := callback(t, env, "s1", "other")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCallback_ExchangeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Provider.err = errors.New("bad code")
	rec := callback(t, env, "s1", "s1")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_NoSession(t *testing.T) {
	env := newTestEnv(t)
	h := env.Sessions.LoadAndSave(env.Middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/libraries", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}

func TestOptionalUser_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	called := false
	h := env.Sessions.LoadAndSave(env.Middleware.OptionalUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if auth.PrincipalFromContext(r.Context()).Authenticated() {
			t.Error("expected anonymous principal")
		}
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("handler not called")
	}
}

func TestMiddleware_UserLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	session := cookieNamed(callback(t, env, "s1", "s1").Result().Cookies(), env.Sessions.Cookie.Name)
	if session == nil {
		t.Fatal("missing session cookie")
	}
	if err := env.DB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when the user lookup fails")
	})
	for name, mw := range map[string]func(http.Handler) http.Handler{
		"RequireAuth":  env.Middleware.RequireAuth,
		"OptionalUser": env.Middleware.OptionalUser,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/libraries", nil)
			req.AddCookie(session)
			rec := httptest.NewRecorder()
			env.Sessions.LoadAndSave(mw(next)).ServeHTTP(rec, req)

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
			}
			if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
	if n := env.Logs.FilterMessage("session user lookup failed").Len(); n != 2 {
		t.Errorf("logged %d lookup failures, want 2", n)
	}
}
