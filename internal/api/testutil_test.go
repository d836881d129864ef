package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/go-chi/chi/v5"

	"github.com/joestump/link-library/internal/api"
	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/metadata"
	"github.com/joestump/link-library/internal/store"
	"github.com/joestump/link-library/internal/testutil"
)

// stubExtractor answers every URL with a fixed preview.
type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, rawURL string) metadata.Metadata {
	return metadata.Metadata{Title: "Stub Title", Description: "stub", URL: rawURL}
}

// testEnv holds the router, stores and session manager for API tests.
type testEnv struct {
	Router    http.Handler
	Sessions  *scs.SessionManager
	Users     *store.UserStore
	Libraries *store.LibraryStore
	Items     *store.ItemStore
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and mounts the API router behind a memory-backed session manager. The
// extra route /test/login/{id} signs the given user id in.
func newTestEnv(t *testing.T, origins ...string) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	us := store.NewUserStore(db)
	ls := store.NewLibraryStore(db)
	is := store.NewItemStore(db)

	sm := scs.New()
	sm.Store = memstore.New()

	svc := library.NewService(library.Deps{
		Libraries: ls,
		Items:     is,
		Now:       func() time.Time { return time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC) },
	})

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Get("/test/login/{id}", func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), auth.SessionUserIDKey, chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/api", api.NewAPIRouter(api.Deps{
		Service:        svc,
		Metadata:       stubExtractor{},
		AuthMiddleware: auth.NewMiddleware(sm, us, nil),
		AllowedOrigins: origins,
	}))

	return &testEnv{Router: r, Sessions: sm, Users: us, Libraries: ls, Items: is}
}

// seedUser creates a user and returns the user record.
func seedUser(t *testing.T, env *testEnv, email string) *store.User {
	t.Helper()
	u, err := env.Users.Upsert(context.Background(), "test", "sub-"+email, email, "Test User")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedLibrary creates a library owned by userID.
func seedLibrary(t *testing.T, env *testEnv, userID, name string) *store.Library {
	t.Helper()
	now := time.Now().UTC()
	lib := &store.Library{Name: name, UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := env.Libraries.Create(context.Background(), lib); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	return lib
}

// seedItem stores an item in libraryID.
func seedItem(t *testing.T, env *testEnv, libraryID, title, url string, tags ...string) *store.Item {
	t.Helper()
	now := time.Now().UTC()
	it := &store.Item{Title: title, URL: url, LibraryID: libraryID, Tags: tags, CreatedAt: now, UpdatedAt: now}
	if err := env.Items.Create(context.Background(), it); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

// login signs userID in and returns the session cookie.
func login(t *testing.T, env *testEnv, userID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/test/login/"+userID, nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == env.Sessions.Cookie.Name {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

// do sends a request through the router, with the session cookie when set.
func do(t *testing.T, env *testEnv, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}
