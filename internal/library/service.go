// Package library implements link library operations on behalf of an
// explicit Principal. Every operation checks ownership itself; nothing reads
// session state implicitly.
package library

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/exporter"
	"github.com/joestump/link-library/internal/importer"
	"github.com/joestump/link-library/internal/metrics"
	"github.com/joestump/link-library/internal/store"
)

// Principal identifies the caller. The zero value is unauthenticated.
type Principal struct {
	UserID string
}

// Authenticated reports whether p carries a user.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// LibraryInput is the user-supplied part of a new library.
type LibraryInput struct {
	Name        string
	Description *string
	IsPublic    bool
}

// ItemInput is the user-supplied part of an item.
type ItemInput struct {
	Title       string
	URL         string
	Description *string
	Tags        []string
}

// Export is a rendered spreadsheet ready for download.
type Export struct {
	Filename string
	Data     []byte
	Count    int
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Libraries store.LibraryStoreIface
	Items     store.ItemStoreIface
	// ExportLocation is the zone export dates and times are shown in.
	// Nil means UTC.
	ExportLocation *time.Location
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Service implements the library and item operations.
type Service struct {
	libraries store.LibraryStoreIface
	items     store.ItemStoreIface
	exportLoc *time.Location
	now       func() time.Time
	log       *zap.Logger
}

func NewService(deps Deps) *Service {
	s := &Service{
		libraries: deps.Libraries,
		items:     deps.Items,
		exportLoc: deps.ExportLocation,
		now:       deps.Now,
		log:       deps.Logger,
	}
	if s.exportLoc == nil {
		s.exportLoc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// ListLibraries returns the caller's libraries in the requested order.
func (s *Service) ListLibraries(ctx context.Context, p Principal, order store.LibraryOrder) ([]*store.Library, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	libs, err := s.libraries.ListByOwner(ctx, p.UserID, order)
	if err != nil {
		return nil, &PersistenceError{Op: "list libraries", Err: err}
	}
	return libs, nil
}

// CreateLibrary creates a library owned by the caller.
func (s *Service) CreateLibrary(ctx context.Context, p Principal, in LibraryInput) (*store.Library, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "Library name is required")
	}

	now := s.now().UTC()
	lib := &store.Library{
		Name:        name,
		Description: optionalText(in.Description),
		IsPublic:    in.IsPublic,
		UserID:      p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.libraries.Create(ctx, lib); err != nil {
		return nil, &PersistenceError{Op: "create library", Err: err}
	}
	s.log.Info("library created", zap.String("library_id", lib.ID), zap.String("user_id", p.UserID))
	return lib, nil
}

// GetLibrary returns one of the caller's libraries.
func (s *Service) GetLibrary(ctx context.Context, p Principal, id string) (*store.Library, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.ownedLibrary(ctx, p, id)
}

// AddItem validates in and stores it in one of the caller's libraries.
// Input errors are reported before ownership is checked.
func (s *Service) AddItem(ctx context.Context, p Principal, libraryID string, in ItemInput) (*store.Item, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	it, err := newItem(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(libraryID) == "" {
		return nil, invalid("libraryId", "Library is required")
	}
	if _, err := s.ownedLibrary(ctx, p, libraryID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	it.LibraryID = libraryID
	it.CreatedAt = now
	it.UpdatedAt = now
	if err := s.items.Create(ctx, it); err != nil {
		return nil, &PersistenceError{Op: "create item", Err: err}
	}
	return it, nil
}

// UpdateItem replaces the editable fields of an item in one of the caller's
// libraries.
func (s *Service) UpdateItem(ctx context.Context, p Principal, itemID string, in ItemInput) (*store.Item, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	it, err := newItem(in)
	if err != nil {
		return nil, err
	}
	it.ID = itemID
	it.UpdatedAt = s.now().UTC()

	if err := s.items.UpdateForOwner(ctx, it, p.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotOwned
		}
		return nil, &PersistenceError{Op: "update item", Err: err}
	}

	updated, err := s.items.GetForOwner(ctx, itemID, p.UserID)
	if err != nil {
		return nil, &PersistenceError{Op: "load item", Err: err}
	}
	return updated, nil
}

// DeleteItem removes an item from one of the caller's libraries.
func (s *Service) DeleteItem(ctx context.Context, p Principal, itemID string) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if err := s.items.DeleteForOwner(ctx, itemID, p.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotOwned
		}
		return &PersistenceError{Op: "delete item", Err: err}
	}
	return nil
}

// ListItems returns the items of one of the caller's libraries, newest first.
func (s *Service) ListItems(ctx context.Context, p Principal, libraryID string, f store.ItemFilter) ([]*store.Item, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if _, err := s.ownedLibrary(ctx, p, libraryID); err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, libraryID, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list items", Err: err}
	}
	return items, nil
}

// ListTags returns the sorted distinct tags used in one of the caller's
// libraries.
func (s *Service) ListTags(ctx context.Context, p Principal, libraryID string) ([]string, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if _, err := s.ownedLibrary(ctx, p, libraryID); err != nil {
		return nil, err
	}
	tags, err := s.items.ListTags(ctx, libraryID)
	if err != nil {
		return nil, &PersistenceError{Op: "list tags", Err: err}
	}
	return tags, nil
}

// Import parses text and stores every record in the library in one batch.
// It returns the number of items stored.
func (s *Service) Import(ctx context.Context, p Principal, libraryID, text string) (int, error) {
	if !p.Authenticated() {
		return 0, ErrUnauthenticated
	}
	if _, err := s.ownedLibrary(ctx, p, libraryID); err != nil {
		return 0, err
	}
	records, err := importer.Parse(text)
	if err != nil {
		return 0, importError(err)
	}
	return s.storeRecords(ctx, p, libraryID, records)
}

// ImportRecords stores already-parsed records in the library in one batch.
func (s *Service) ImportRecords(ctx context.Context, p Principal, libraryID string, records []importer.Record) (int, error) {
	if !p.Authenticated() {
		return 0, ErrUnauthenticated
	}
	if _, err := s.ownedLibrary(ctx, p, libraryID); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, ErrEmptyImport
	}
	return s.storeRecords(ctx, p, libraryID, records)
}

func (s *Service) storeRecords(ctx context.Context, p Principal, libraryID string, records []importer.Record) (int, error) {
	now := s.now().UTC()
	items := make([]*store.Item, 0, len(records))
	for i, rec := range records {
		it, err := newItem(ItemInput{Title: rec.Title, URL: rec.URL, Description: rec.Description, Tags: rec.Tags})
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return 0, invalid(fmt.Sprintf("items[%d].%s", i, verr.Field), fmt.Sprintf("record %d: %s", i+1, verr.Message))
			}
			return 0, err
		}
		it.LibraryID = libraryID
		it.CreatedAt = now
		it.UpdatedAt = now
		items = append(items, it)
	}

	if err := s.items.BulkCreate(ctx, items); err != nil {
		return 0, &PersistenceError{Op: "import items", Err: err}
	}
	metrics.ItemsImportedTotal.Add(float64(len(items)))
	metrics.ItemsSavedTotal.WithLabelValues("import").Add(float64(len(items)))
	s.log.Info("items imported",
		zap.String("library_id", libraryID),
		zap.String("user_id", p.UserID),
		zap.Int("count", len(items)))
	return len(items), nil
}

// Export renders every item of one of the caller's libraries, newest first,
// as an xlsx workbook.
func (s *Service) Export(ctx context.Context, p Principal, libraryID string) (*Export, error) {
	items, err := s.ListItems(ctx, p, libraryID, store.ItemFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, items, s.exportLoc); err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	metrics.ExportsTotal.Inc()
	return &Export{
		Filename: exporter.Filename(libraryID, s.now()),
		Data:     buf.Bytes(),
		Count:    len(items),
	}, nil
}

func (s *Service) ownedLibrary(ctx context.Context, p Principal, id string) (*store.Library, error) {
	lib, err := s.libraries.GetForOwner(ctx, id, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotOwned
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load library", Err: err}
	}
	return lib, nil
}

func newItem(in ItemInput) (*store.Item, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "Title is required")
	}
	u := strings.TrimSpace(in.URL)
	if err := store.ValidateURL(u); err != nil {
		return nil, invalid("url", err.Error())
	}
	return &store.Item{
		Title:       title,
		URL:         u,
		Description: optionalText(in.Description),
		Tags:        store.NormalizeTags(in.Tags),
	}, nil
}

func optionalText(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: t, Valid: true}
}

// importError maps parser failures onto the service error taxonomy.
func importError(err error) error {
	var recErr *importer.RecordError
	if errors.As(err, &recErr) {
		return invalid(fmt.Sprintf("items[%d]", recErr.Index), recErr.Error())
	}
	var lineErr *importer.LineError
	if errors.As(err, &lineErr) {
		return invalid("text", lineErr.Error())
	}
	return err
}
