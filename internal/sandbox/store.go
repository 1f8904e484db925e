// Package sandbox owns the application-private directory used for all
// locally cached content files. Every mutation is confined to that
// directory; callers cannot make the store write or delete outside it.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExtension is used when no extension can be determined for a source.
const DefaultExtension = "bin"

// Store manages files inside a private directory.
type Store struct {
	dir string
}

// New creates a sandbox store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create sandbox dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute path of the private directory.
func (s *Store) Dir() string {
	return s.dir
}

// Create allocates a new empty file with a collision-resistant name and
// returns its absolute path. The name follows book_<bookID>_<random>.<ext>.
func (s *Store) Create(bookID, ext string) (string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	name := fmt.Sprintf("book_%s_%s.%s", bookID, uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create sandbox file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close sandbox file: %w", err)
	}
	return path, nil
}

// CreateProfile allocates a file for a profile-style asset, named by timestamp.
func (s *Store) CreateProfile(ext string) (string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	name := fmt.Sprintf("profile_%d.%s", time.Now().UnixMilli(), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create profile file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close profile file: %w", err)
	}
	return path, nil
}

// CoverFileName returns the conventional local name for a book cover image.
func CoverFileName(bookID, ext string) string {
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("cover_%s.%s", bookID, ext)
}

// Contains reports whether path is lexically inside the private directory.
// It prevents acting on arbitrary filesystem paths supplied by callers.
func (s *Store) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(s.dir, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Delete removes the file at path only if it is inside the sandbox and
// exists. Anything else is a silent no-op: deletion requests may arrive for
// already-evicted or externally-referenced paths, and those must stay safe.
func (s *Store) Delete(path string) {
	if !s.Contains(path) {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	os.Remove(path)
}

// ExtFromURL extracts a file extension from a blob URL, ignoring query
// parameters. Falls back to DefaultExtension when none can be determined.
func ExtFromURL(url string) string {
	trimmed := url
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	base := trimmed
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 && i < len(base)-1 {
		return base[i+1:]
	}
	return DefaultExtension
}

// ExtFromMime maps a small closed set of document MIME types to extensions.
// Unknown types return an empty string.
func ExtFromMime(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "pdf"
	case "text/plain":
		return "txt"
	case "application/epub+zip":
		return "epub"
	default:
		return ""
	}
}
