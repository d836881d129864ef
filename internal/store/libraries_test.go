package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joestump/link-library/internal/store"
)

func TestLibraryStore_GetForOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := seedUser(t, env, "alice@example.com")
	bob := seedUser(t, env, "bob@example.com")
	ctx := context.Background()

	lib := &store.Library{
		Name:        "Reading",
		Description: nullString("Articles to read"),
		IsPublic:    true,
		UserID:      alice.ID,
	}
	if err := env.Libraries.Create(ctx, lib); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lib.ID == "" {
		t.Fatal("expected ID to be assigned")
	}

	got, err := env.Libraries.GetForOwner(ctx, lib.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetForOwner: %v", err)
	}
	if got.Name != "Reading" || !got.IsPublic || got.Description.String != "Articles to read" {
		t.Errorf("got %+v", got)
	}

	_, err = env.Libraries.GetForOwner(ctx, lib.ID, bob.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign owner err = %v, want ErrNotFound", err)
	}
}

func TestLibraryStore_ListByOwner_Order(t *testing.T) {
	env := newTestEnv(t)
	alice := seedUser(t, env, "alice@example.com")
	bob := seedUser(t, env, "bob@example.com")
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	seedLibrary(t, env, alice.ID, "Zeta", base)
	seedLibrary(t, env, alice.ID, "Alpha", base.Add(time.Hour))
	seedLibrary(t, env, alice.ID, "Mid", base.Add(2*time.Hour))
	seedLibrary(t, env, bob.ID, "Bob's", base)

	byName, err := env.Libraries.ListByOwner(ctx, alice.ID, store.ByName)
	if err != nil {
		t.Fatalf("ListByOwner ByName: %v", err)
	}
	assertLibraryNames(t, byName, "Alpha", "Mid", "Zeta")

	byNewest, err := env.Libraries.ListByOwner(ctx, alice.ID, store.ByNewest)
	if err != nil {
		t.Fatalf("ListByOwner ByNewest: %v", err)
	}
	assertLibraryNames(t, byNewest, "Mid", "Alpha", "Zeta")
}

func TestLibraryStore_ListByOwner_Empty(t *testing.T) {
	env := newTestEnv(t)
	alice := seedUser(t, env, "alice@example.com")

	libs, err := env.Libraries.ListByOwner(context.Background(), alice.ID, store.ByName)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if libs == nil || len(libs) != 0 {
		t.Errorf("libs = %v, want empty non-nil slice", libs)
	}
}

func assertLibraryNames(t *testing.T, libs []*store.Library, want ...string) {
	t.Helper()
	if len(libs) != len(want) {
		t.Fatalf("len = %d, want %d", len(libs), len(want))
	}
	for i, name := range want {
		if libs[i].Name != name {
			t.Errorf("libs[%d] = %q, want %q", i, libs[i].Name, name)
		}
	}
}
