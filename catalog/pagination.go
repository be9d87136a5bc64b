package catalog

import (
	"encoding/base64"
	"fmt"

	"github.com/relaymesh/gateway/schemas"
)

// DefaultPageSize is a page size callers may pass to ApplyPagination;
// ApplyPagination does not apply it itself (a pageSize <= 0 returns every
// model).
const DefaultPageSize = 1000

// paginationCursor is the opaque page-token payload.
type paginationCursor struct {
	Offset int    `json:"o"`
	LastID string `json:"l,omitempty"`
}

// Page is one page of a List call: the slice of models plus an opaque
// token to fetch the next page (empty when there is no next page).
type Page struct {
	Models        []schemas.ModelInfo
	NextPageToken string
}

// ApplyPagination slices models into one page starting at pageToken, of at
// most pageSize entries. A pageSize <= 0 returns every model with no
// pagination token.
func ApplyPagination(models []schemas.ModelInfo, pageSize int, pageToken string) Page {
	if pageSize <= 0 {
		return Page{Models: models}
	}

	total := len(models)
	cursor := decodePaginationCursor(pageToken)
	offset := cursor.Offset

	if cursor.LastID != "" && !validatePaginationCursor(cursor, models) {
		offset = 0
	}

	if offset >= total {
		return Page{Models: []schemas.ModelInfo{}}
	}

	end := offset + pageSize
	if end > total {
		end = total
	}
	page := models[offset:end]

	result := Page{Models: page}
	if end < total {
		var lastID string
		if len(page) > 0 {
			lastID = page[len(page)-1].ID
		}
		if token, err := encodePaginationCursor(end, lastID); err == nil {
			result.NextPageToken = token
		}
	}
	return result
}

// encodePaginationCursor creates an opaque base64 page token. Returns an
// empty string for offset <= 0 (the first page needs no token).
func encodePaginationCursor(offset int, lastID string) (string, error) {
	if offset <= 0 {
		return "", nil
	}
	data, err := schemas.Marshal(paginationCursor{Offset: offset, LastID: lastID})
	if err != nil {
		return "", fmt.Errorf("marshal pagination cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodePaginationCursor extracts cursor data from an opaque page token.
// Any malformed token decodes to the zero cursor (offset 0).
func decodePaginationCursor(token string) paginationCursor {
	if token == "" {
		return paginationCursor{}
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return paginationCursor{}
	}
	var cursor paginationCursor
	if err := schemas.Unmarshal(decoded, &cursor); err != nil {
		return paginationCursor{}
	}
	if cursor.Offset < 0 {
		return paginationCursor{}
	}
	return cursor
}

// validatePaginationCursor checks that the cursor's LastID still matches the
// item preceding its offset, guarding against a stale token issued before a
// refresh reordered the underlying slice.
func validatePaginationCursor(cursor paginationCursor, data []schemas.ModelInfo) bool {
	if cursor.LastID == "" {
		return true
	}
	if cursor.Offset <= 0 || cursor.Offset > len(data) {
		return false
	}
	prevIndex := cursor.Offset - 1
	if prevIndex >= 0 && prevIndex < len(data) {
		return data[prevIndex].ID == cursor.LastID
	}
	return true
}
