package api

import (
	"database/sql"
	"time"

	"github.com/joestump/link-library/internal/store"
)

// --- Library types ---

// CreateLibraryRequest is the request body for POST /api/v1/libraries.
type CreateLibraryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsPublic    bool    `json:"is_public"`
}

// LibraryResponse is the JSON representation of a single library.
type LibraryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LibraryListResponse is the response for GET /api/v1/libraries.
type LibraryListResponse struct {
	Libraries []LibraryResponse `json:"libraries"`
}

// --- Item types ---

// ItemRequest is the request body for creating and updating items.
type ItemRequest struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ItemResponse is the JSON representation of a single item. Absent
// description and tags are null.
type ItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	Tags        []string  `json:"tags"`
	LibraryID   string    `json:"library_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemListResponse is the response for GET /api/v1/libraries/{id}/items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

// TagListResponse is the response for GET /api/v1/libraries/{id}/tags.
type TagListResponse struct {
	Tags []string `json:"tags"`
}

// --- Import types ---

// ImportRequest is the JSON form of an import body.
type ImportRequest struct {
	Text string `json:"text"`
}

// ImportResponse reports how many items an import stored.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// --- Extension types ---

// ExtensionLibrary is a library as listed to the browser extension.
type ExtensionLibrary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsPublic    bool    `json:"is_public"`
}

// ExtensionLibrariesResponse is the response for GET /api/extension.
type ExtensionLibrariesResponse struct {
	Libraries []ExtensionLibrary `json:"libraries"`
}

// ExtensionSaveRequest is the request body for POST /api/extension.
type ExtensionSaveRequest struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	LibraryID   string   `json:"libraryId"`
}

// ExtensionSaveResponse is the response for a successful POST /api/extension.
type ExtensionSaveResponse struct {
	Success bool         `json:"success"`
	Item    ItemResponse `json:"item"`
}

func nullableText(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func toLibraryResponse(l *store.Library) LibraryResponse {
	return LibraryResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: nullableText(l.Description),
		IsPublic:    l.IsPublic,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toItemResponse(it *store.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Title:       it.Title,
		URL:         it.URL,
		Description: nullableText(it.Description),
		Tags:        it.Tags,
		LibraryID:   it.LibraryID,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}
