package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joestump/link-library/internal/store"
	"github.com/joestump/link-library/internal/testutil"
)

type testEnv struct {
	DB        *sqlx.DB
	Users     *store.UserStore
	Libraries *store.LibraryStore
	Items     *store.ItemStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &testEnv{
		DB:        db,
		Users:     store.NewUserStore(db),
		Libraries: store.NewLibraryStore(db),
		Items:     store.NewItemStore(db),
	}
}

func seedUser(t *testing.T, env *testEnv, email string) *store.User {
	t.Helper()
	u, err := env.Users.Upsert(context.Background(), "test", "sub-"+email, email, "Test User")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedLibrary(t *testing.T, env *testEnv, ownerID, name string, createdAt time.Time) *store.Library {
	t.Helper()
	lib := &store.Library{Name: name, UserID: ownerID, CreatedAt: createdAt}
	if err := env.Libraries.Create(context.Background(), lib); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	return lib
}

func seedItem(t *testing.T, env *testEnv, libraryID, title, url string, tags []string, createdAt time.Time) *store.Item {
	t.Helper()
	it := &store.Item{Title: title, URL: url, LibraryID: libraryID, Tags: tags, CreatedAt: createdAt}
	if err := env.Items.Create(context.Background(), it); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
