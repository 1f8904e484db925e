// Package remote defines the narrow interfaces behind which the vendor
// backend sits: a credential provider, a catalog query/write service and a
// blob transfer service. The core is testable with in-memory fakes of these.
package remote

import (
	"context"
	"io"
)

// Record is a catalog document as the remote service stores it.
type Record struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	FileURL    string `json:"fileUrl"`
	ImgURL     string `json:"imgUrl,omitempty"`
	UserID     string `json:"userId"`
	UploadDate int64  `json:"uploadDate,omitempty"` // write-only, unix millis
	FileSize   int64  `json:"fileSize"`
}

// CredentialProvider resolves the currently authenticated user. It replaces
// ambient singleton access to the session with an explicit value.
type CredentialProvider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// CatalogService is the remote catalog query/write surface.
type CatalogService interface {
	// QueryByOwner returns all records owned by the given user.
	QueryByOwner(ctx context.Context, ownerID string) ([]Record, error)
	// Put creates or replaces the record stored under id.
	Put(ctx context.Context, id string, record Record) error
	// Remove deletes the record stored under id.
	Remove(ctx context.Context, id string) error
}

// BlobService moves opaque binary payloads to and from the remote store.
// Books live under "books/<bookId>.<ext>", covers under
// "covers/cover_<bookId>.<ext>".
type BlobService interface {
	// Fetch opens the blob behind ref for reading. The returned size is the
	// total byte length, or 0 if the service does not know it up front.
	Fetch(ctx context.Context, ref string) (io.ReadCloser, int64, error)
	// Store streams r into the blob namespace under key and returns a
	// durable reference to the stored blob.
	Store(ctx context.Context, key string, r io.Reader, size int64) (string, error)
}
