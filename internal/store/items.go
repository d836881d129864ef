package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Item represents a row in the items table together with its tags.
type Item struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	URL         string         `db:"url"`
	Description sql.NullString `db:"description"`
	LibraryID   string         `db:"library_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`

	// Tags is nil when the item has no tags.
	Tags []string `db:"-"`
}

// likeEscaper makes LIKE wildcards in a search term match literally, with
// '!' as the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ItemStore is the sqlx-backed implementation of ItemStoreIface.
type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a single item and its tags.
func (s *ItemStore) Create(ctx context.Context, it *Item) error {
	return s.BulkCreate(ctx, []*Item{it})
}

// BulkCreate inserts all items in one transaction. Either every item is
// stored or none is.
func (s *ItemStore) BulkCreate(ctx context.Context, items []*Item) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = it.CreatedAt
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO items (id, title, url, description, library_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), it.ID, it.Title, it.URL, it.Description, it.LibraryID, it.CreatedAt, it.UpdatedAt)
		if err != nil {
			return err
		}
		if err := insertTags(ctx, tx, it.ID, it.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetForOwner returns the item if its library is owned by ownerID.
func (s *ItemStore) GetForOwner(ctx context.Context, id, ownerID string) (*Item, error) {
	var it Item
	err := s.db.GetContext(ctx, &it, s.q(`
		SELECT i.* FROM items i
		INNER JOIN libraries l ON l.id = i.library_id
		WHERE i.id = ? AND l.user_id = ?
	`), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, []*Item{&it}); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateForOwner replaces the title, url, description and tags of it.
// It returns ErrNotFound when the item does not exist or its library is not
// owned by ownerID.
func (s *ItemStore) UpdateForOwner(ctx context.Context, it *Item, ownerID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	libraryID, err := ownedItemLibrary(ctx, tx, it.ID, ownerID)
	if err != nil {
		return err
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE items SET title = ?, url = ?, description = ?, updated_at = ? WHERE id = ?
	`), it.Title, it.URL, it.Description, it.UpdatedAt, it.ID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM item_tags WHERE item_id = ?`), it.ID); err != nil {
		return err
	}
	if err := insertTags(ctx, tx, it.ID, it.Tags); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	it.LibraryID = libraryID
	return nil
}

// DeleteForOwner removes an item; item_tags rows cascade. It returns
// ErrNotFound when the item does not exist or its library is not owned by
// ownerID.
func (s *ItemStore) DeleteForOwner(ctx context.Context, id, ownerID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := ownedItemLibrary(ctx, tx, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM items WHERE id = ?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the items of a library, newest first. The caller is
// responsible for checking that the library belongs to the requester.
func (s *ItemStore) List(ctx context.Context, libraryID string, f ItemFilter) ([]*Item, error) {
	query := `SELECT i.* FROM items i WHERE i.library_id = ?`
	args := []any{libraryID}

	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query += ` AND (LOWER(i.title) LIKE ? ESCAPE '!' OR LOWER(i.description) LIKE ? ESCAPE '!' OR LOWER(i.url) LIKE ? ESCAPE '!')`
		args = append(args, pattern, pattern, pattern)
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM item_tags t WHERE t.item_id = i.id AND t.tag = ?)`
		args = append(args, tag)
	}
	query += ` ORDER BY i.created_at DESC, i.id ASC`

	items := []*Item{}
	if err := s.db.SelectContext(ctx, &items, s.q(query), args...); err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListTags returns the sorted set of distinct tags used in a library.
func (s *ItemStore) ListTags(ctx context.Context, libraryID string) ([]string, error) {
	tags := []string{}
	err := s.db.SelectContext(ctx, &tags, s.q(`
		SELECT DISTINCT t.tag FROM item_tags t
		INNER JOIN items i ON i.id = t.item_id
		WHERE i.library_id = ?
		ORDER BY t.tag ASC
	`), libraryID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// attachTags loads tags for items with a single IN query.
func (s *ItemStore) attachTags(ctx context.Context, items []*Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*Item, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		ids = append(ids, it.ID)
	}

	query, args, err := sqlx.In(`
		SELECT item_id, tag FROM item_tags WHERE item_id IN (?) ORDER BY item_id, position ASC
	`, ids)
	if err != nil {
		return err
	}

	var rows []struct {
		ItemID string `db:"item_id"`
		Tag    string `db:"tag"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return err
	}
	for _, row := range rows {
		if it, ok := byID[row.ItemID]; ok {
			it.Tags = append(it.Tags, row.Tag)
		}
	}
	return nil
}

func ownedItemLibrary(ctx context.Context, tx *sqlx.Tx, itemID, ownerID string) (string, error) {
	var libraryID string
	err := tx.GetContext(ctx, &libraryID, tx.Rebind(`
		SELECT i.library_id FROM items i
		INNER JOIN libraries l ON l.id = i.library_id
		WHERE i.id = ? AND l.user_id = ?
	`), itemID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return libraryID, err
}

func insertTags(ctx context.Context, tx *sqlx.Tx, itemID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO item_tags (item_id, tag, position) VALUES (?, ?, ?)
		`), itemID, tag, i)
		if err != nil {
			return err
		}
	}
	return nil
}
