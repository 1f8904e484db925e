// Package syncer reconciles the local catalog against the remote catalog,
// producing a merged, deduplicated view without overwriting local state.
package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/remote"
)

// Engine surfaces remote-only catalog records for the current user.
type Engine struct {
	catalog remote.CatalogService
	creds   remote.CredentialProvider
}

// New creates a sync engine over the remote catalog.
func New(catalog remote.CatalogService, creds remote.CredentialProvider) *Engine {
	return &Engine{catalog: catalog, creds: creds}
}

// Reconcile queries the remote catalog for the current user and returns the
// records whose trimmed id is not in knownIDs, mapped into not-downloaded
// books. Records missing a title are dropped rather than surfaced with a
// placeholder. Existing local records are never touched.
func (e *Engine) Reconcile(ctx context.Context, knownIDs []string) ([]entities.Book, error) {
	owner, err := e.creds.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	records, err := e.catalog.QueryByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("query remote catalog: %w", err)
	}

	known := make(map[string]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[strings.TrimSpace(id)] = struct{}{}
	}

	var fresh []entities.Book
	for _, record := range records {
		id := strings.TrimSpace(record.ID)
		if id == "" {
			continue
		}
		if _, exists := known[id]; exists {
			continue
		}
		if record.Title == "" {
			continue
		}
		fresh = append(fresh, entities.Book{
			ID:           id,
			Owner:        owner,
			Title:        record.Title,
			Author:       record.Author,
			CoverURL:     record.ImgURL,
			ContentURL:   record.FileURL,
			ContentSize:  record.FileSize,
			IsDownloaded: false,
		})
	}
	return fresh, nil
}

// Merge returns the union of local books (verbatim, in order) and the
// newly surfaced remote-only books, with duplicates by id removed. Remote
// data never replaces a local row.
func Merge(local, fresh []entities.Book) []entities.Book {
	seen := make(map[string]struct{}, len(local)+len(fresh))
	merged := make([]entities.Book, 0, len(local)+len(fresh))

	for _, book := range local {
		if _, dup := seen[book.ID]; dup {
			continue
		}
		seen[book.ID] = struct{}{}
		merged = append(merged, book)
	}
	for _, book := range fresh {
		if _, dup := seen[book.ID]; dup {
			continue
		}
		seen[book.ID] = struct{}{}
		merged = append(merged, book)
	}
	return merged
}
