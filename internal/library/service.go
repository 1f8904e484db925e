// Package library orchestrates the catalog, sandbox, transfer, decode and
// sync components into the operations the application exposes: listing,
// syncing, downloading, uploading, deleting and opening books.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/decode"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/reading"
	"github.com/mrlokans/shelf/internal/remote"
	"github.com/mrlokans/shelf/internal/sandbox"
	"github.com/mrlokans/shelf/internal/syncer"
	"github.com/mrlokans/shelf/internal/transfer"
)

var (
	// ErrNotDownloaded is returned when opening a book that has no local copy.
	ErrNotDownloaded = errors.New("book is not downloaded")
	// ErrContentMissing is returned when a book is flagged as downloaded but
	// its sandbox file no longer exists.
	ErrContentMissing = errors.New("book content file is missing")
	// ErrDownloadInFlight is returned when a download for the same book id
	// is already running.
	ErrDownloadInFlight = errors.New("download already in progress for this book")
)

// Service ties the core components together.
type Service struct {
	repo     *books.Repository
	sandbox  *sandbox.Store
	transfer *transfer.Transferrer
	sync     *syncer.Engine
	tracker  *reading.Tracker
	catalog  remote.CatalogService
	creds    remote.CredentialProvider

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates the library service.
func NewService(
	repo *books.Repository,
	store *sandbox.Store,
	tr *transfer.Transferrer,
	engine *syncer.Engine,
	tracker *reading.Tracker,
	catalog remote.CatalogService,
	creds remote.CredentialProvider,
) *Service {
	return &Service{
		repo:     repo,
		sandbox:  store,
		transfer: tr,
		sync:     engine,
		tracker:  tracker,
		catalog:  catalog,
		creds:    creds,
		inFlight: make(map[string]struct{}),
	}
}

// List returns every book in the local catalog.
func (s *Service) List() ([]entities.Book, error) {
	return s.repo.GetAll()
}

// Get returns a single book by id.
func (s *Service) Get(id string) (*entities.Book, error) {
	return s.repo.GetByID(id)
}

// Search finds books by title or author.
func (s *Service) Search(query string) ([]entities.Book, error) {
	return s.repo.Search(query)
}

// Watch exposes catalog change notifications.
func (s *Service) Watch() <-chan struct{} {
	return s.repo.Watch()
}

// Tracker returns the reading position tracker.
func (s *Service) Tracker() *reading.Tracker {
	return s.tracker
}

// SyncAll reconciles the local catalog against the remote one and persists
// any newly visible remote-only books. Existing local rows are never
// modified by a sync.
func (s *Service) SyncAll(ctx context.Context) (int, error) {
	knownIDs, err := s.repo.GetAllIDs()
	if err != nil {
		return 0, fmt.Errorf("list known ids: %w", err)
	}

	fresh, err := s.sync.Reconcile(ctx, knownIDs)
	if err != nil {
		return 0, err
	}

	for i := range fresh {
		if err := s.repo.Upsert(&fresh[i]); err != nil {
			return 0, fmt.Errorf("store synced book %s: %w", fresh[i].ID, err)
		}
	}
	if len(fresh) > 0 {
		log.Printf("Catalog sync surfaced %d new remote book(s)", len(fresh))
	}
	return len(fresh), nil
}

// Download fetches a book's content blob into the sandbox and records the
// local copy in the catalog. The catalog is only mutated after the whole
// transfer succeeded, so an abandoned or failed transfer never leaves it
// referencing a broken file. Concurrent downloads for the same id are
// rejected with ErrDownloadInFlight.
func (s *Service) Download(ctx context.Context, id string, onProgress transfer.ProgressFunc) (*entities.Book, error) {
	book, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if book.ContentURL == "" {
		return nil, fmt.Errorf("book %s has no remote content", id)
	}

	s.mu.Lock()
	if _, busy := s.inFlight[id]; busy {
		s.mu.Unlock()
		return nil, ErrDownloadInFlight
	}
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}()

	path, size, err := s.transfer.Download(ctx, id, book.ContentURL, onProgress)
	if err != nil {
		return nil, err
	}

	book.IsDownloaded = true
	book.LocalPath = path
	book.ContentSize = size
	if err := s.repo.Upsert(book); err != nil {
		return nil, fmt.Errorf("record downloaded book: %w", err)
	}
	return book, nil
}

// UploadRequest describes a new book supplied by the user.
type UploadRequest struct {
	SourcePath string // file on the local filesystem, outside the sandbox
	Title      string
	Author     string
	CoverPath  string // optional cover image
}

// Upload adds a new book local-first: the source file is copied into the
// sandbox, the blob and optional cover are uploaded, the remote catalog
// record is written, and only then is the local catalog row created, with
// the book immediately downloaded. The id is generated locally before the
// remote write.
func (s *Service) Upload(ctx context.Context, req UploadRequest, onProgress transfer.ProgressFunc) (*entities.Book, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	owner, err := s.creds.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	id := uuid.NewString()

	localPath, localSize, err := s.copyIntoSandbox(id, req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("copy into sandbox: %w", err)
	}

	var coverURL string
	if req.CoverPath != "" {
		coverURL, err = s.transfer.UploadCover(ctx, req.CoverPath, id)
		if err != nil {
			return nil, err
		}
	}

	contentURL, err := s.transfer.UploadBook(ctx, localPath, id, onProgress)
	if err != nil {
		return nil, err
	}

	err = s.catalog.Put(ctx, id, remote.Record{
		Title:      req.Title,
		Author:     req.Author,
		FileURL:    contentURL,
		ImgURL:     coverURL,
		UserID:     owner,
		UploadDate: time.Now().UnixMilli(),
		FileSize:   localSize,
	})
	if err != nil {
		return nil, fmt.Errorf("write remote catalog record: %w", err)
	}

	book := &entities.Book{
		ID:           id,
		Owner:        owner,
		Title:        req.Title,
		Author:       req.Author,
		CoverURL:     coverURL,
		ContentURL:   contentURL,
		LocalPath:    localPath,
		IsDownloaded: true,
		ContentSize:  localSize,
	}
	if err := s.repo.Upsert(book); err != nil {
		return nil, fmt.Errorf("record uploaded book: %w", err)
	}

	log.Printf("Uploaded book %s (%s, %d bytes)", id, req.Title, localSize)
	return book, nil
}

// Delete removes a book from the local catalog. The sandbox file is
// removed first when one exists. Remote metadata and the remote blob are
// left untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	book, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return nil
		}
		return err
	}

	if book.IsDownloaded && book.LocalPath != "" {
		s.sandbox.Delete(book.LocalPath)
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("delete catalog row: %w", err)
	}
	s.tracker.Forget(id)
	return nil
}

// Open loads a downloaded book's content as plain text and seeds the
// reading position. Decode failures do not surface as errors; they arrive
// as readable text inside the content. Guard failures (unknown id, not
// downloaded, vanished file) do surface as errors.
func (s *Service) Open(id string) (*entities.Book, string, error) {
	book, err := s.repo.GetByID(id)
	if err != nil {
		return nil, "", err
	}
	if !book.IsDownloaded || book.LocalPath == "" {
		return nil, "", ErrNotDownloaded
	}
	// The downloaded flag can go stale if the file was removed out-of-band.
	if _, err := os.Stat(book.LocalPath); err != nil {
		return nil, "", ErrContentMissing
	}

	content := decode.DecodeFile(book.LocalPath)
	s.tracker.Seed(id, book.LastReadPosition)
	return book, content, nil
}

// RecordPosition feeds a new reading position into the tracker.
func (s *Service) RecordPosition(id string, position int64) {
	s.tracker.Record(id, position)
}

// copyIntoSandbox copies an arbitrary local file into a fresh sandbox file
// and returns its path and size.
func (s *Service) copyIntoSandbox(bookID, sourcePath string) (string, int64, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	ext := strings.TrimPrefix(filepath.Ext(sourcePath), ".")
	path, err := s.sandbox.Create(bookID, ext)
	if err != nil {
		return "", 0, err
	}

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", 0, err
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, err
	}
	return path, written, nil
}
