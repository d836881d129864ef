package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Library represents a row in the libraries table.
type Library struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	IsPublic    bool           `db:"is_public"`
	UserID      string         `db:"user_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// LibraryStore is the sqlx-backed implementation of LibraryStoreIface.
type LibraryStore struct {
	db *sqlx.DB
}

func NewLibraryStore(db *sqlx.DB) *LibraryStore {
	return &LibraryStore{db: db}
}

func (s *LibraryStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts lib. ID and timestamps are filled in when unset.
func (s *LibraryStore) Create(ctx context.Context, lib *Library) error {
	if lib.ID == "" {
		lib.ID = uuid.New().String()
	}
	if lib.CreatedAt.IsZero() {
		lib.CreatedAt = time.Now().UTC()
	}
	if lib.UpdatedAt.IsZero() {
		lib.UpdatedAt = lib.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO libraries (id, name, description, is_public, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), lib.ID, lib.Name, lib.Description, lib.IsPublic, lib.UserID, lib.CreatedAt, lib.UpdatedAt)
	return err
}

// GetForOwner returns the library only if ownerID owns it. A library that
// exists but belongs to someone else is reported as ErrNotFound.
func (s *LibraryStore) GetForOwner(ctx context.Context, id, ownerID string) (*Library, error) {
	var lib Library
	err := s.db.GetContext(ctx, &lib, s.q(`SELECT * FROM libraries WHERE id = ? AND user_id = ?`), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lib, nil
}

// ListByOwner returns every library owned by ownerID.
func (s *LibraryStore) ListByOwner(ctx context.Context, ownerID string, order LibraryOrder) ([]*Library, error) {
	orderBy := "name ASC, id ASC"
	if order == ByNewest {
		orderBy = "created_at DESC, id ASC"
	}
	libs := []*Library{}
	err := s.db.SelectContext(ctx, &libs, s.q(`SELECT * FROM libraries WHERE user_id = ? ORDER BY `+orderBy), ownerID)
	if err != nil {
		return nil, err
	}
	return libs, nil
}
