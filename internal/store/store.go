// Package store is the persistence gateway for users, libraries and items.
// Every library and item query is scoped by the owning user, either directly
// or through the item's library.
package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist or is not
// visible to the requesting owner.
var ErrNotFound = errors.New("not found")

// LibraryOrder selects the sort order of ListByOwner.
type LibraryOrder int

const (
	// ByName sorts libraries alphabetically, as the extension picker shows them.
	ByName LibraryOrder = iota
	// ByNewest sorts libraries by creation time, newest first.
	ByNewest
)

// ItemFilter narrows an item listing. Zero values mean "no filter".
type ItemFilter struct {
	// Search matches case-insensitively against title, description and url.
	Search string
	// Tag restricts results to items carrying this tag.
	Tag string
}

// LibraryStoreIface exposes library operations scoped by owner.
type LibraryStoreIface interface {
	Create(ctx context.Context, lib *Library) error
	GetForOwner(ctx context.Context, id, ownerID string) (*Library, error)
	ListByOwner(ctx context.Context, ownerID string, order LibraryOrder) ([]*Library, error)
}

// ItemStoreIface exposes item operations. Mutations are scoped by the owner
// of the item's library.
type ItemStoreIface interface {
	Create(ctx context.Context, it *Item) error
	BulkCreate(ctx context.Context, items []*Item) error
	GetForOwner(ctx context.Context, id, ownerID string) (*Item, error)
	UpdateForOwner(ctx context.Context, it *Item, ownerID string) error
	DeleteForOwner(ctx context.Context, id, ownerID string) error
	List(ctx context.Context, libraryID string, f ItemFilter) ([]*Item, error)
	ListTags(ctx context.Context, libraryID string) ([]string, error)
}

// isUniqueConstraintError checks whether err indicates a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value") || // PostgreSQL
		strings.Contains(msg, "Duplicate entry") // MySQL
}
