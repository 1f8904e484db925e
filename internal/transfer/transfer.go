// Package transfer streams book and cover blobs between the remote store
// and the sandbox directory, reporting percentage progress to the caller.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/shelf/internal/remote"
	"github.com/mrlokans/shelf/internal/sandbox"
)

// ProgressFunc receives a monotonically non-decreasing percentage (0-100).
type ProgressFunc func(percent int)

// Error wraps a network or remote-service failure during a transfer.
// Transfer errors are propagated to the caller and not retried here.
type Error struct {
	Op  string // "download" or "upload"
	Ref string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transfer: %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transferrer moves blobs between the remote service and the sandbox.
type Transferrer struct {
	blobs   remote.BlobService
	sandbox *sandbox.Store
}

// New creates a transferrer over the given blob service and sandbox store.
func New(blobs remote.BlobService, store *sandbox.Store) *Transferrer {
	return &Transferrer{blobs: blobs, sandbox: store}
}

// Download streams the blob behind ref into a newly allocated sandbox file
// and returns its path and byte size. On failure a partially written
// sandbox file may remain; it is never recorded in the catalog, and a
// retry allocates a fresh file.
func (t *Transferrer) Download(ctx context.Context, bookID, ref string, onProgress ProgressFunc) (string, int64, error) {
	body, total, err := t.blobs.Fetch(ctx, ref)
	if err != nil {
		return "", 0, &Error{Op: "download", Ref: ref, Err: err}
	}
	defer body.Close()

	path, err := t.sandbox.Create(bookID, sandbox.ExtFromURL(ref))
	if err != nil {
		return "", 0, &Error{Op: "download", Ref: ref, Err: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", 0, &Error{Op: "download", Ref: ref, Err: err}
	}

	counter := &progressWriter{total: total, onProgress: onProgress}
	written, err := io.Copy(io.MultiWriter(f, counter), body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, &Error{Op: "download", Ref: ref, Err: err}
	}

	counter.complete()
	return path, written, nil
}

// Upload streams the local file into the remote blob namespace under key
// and returns the remote reference.
func (t *Transferrer) Upload(ctx context.Context, localPath, key string, onProgress ProgressFunc) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &Error{Op: "upload", Ref: key, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &Error{Op: "upload", Ref: key, Err: err}
	}

	counter := &progressWriter{total: info.Size(), onProgress: onProgress}
	ref, err := t.blobs.Store(ctx, key, io.TeeReader(f, counter), info.Size())
	if err != nil {
		return "", &Error{Op: "upload", Ref: key, Err: err}
	}

	counter.complete()
	return ref, nil
}

// UploadBook uploads a book file under the conventional "books/<id>.<ext>" key.
func (t *Transferrer) UploadBook(ctx context.Context, localPath, bookID string, onProgress ProgressFunc) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(localPath), ".")
	if ext == "" {
		ext = sandbox.DefaultExtension
	}
	return t.Upload(ctx, localPath, fmt.Sprintf("books/%s.%s", bookID, ext), onProgress)
}

// UploadCover uploads a cover image under "covers/cover_<id>.<ext>".
func (t *Transferrer) UploadCover(ctx context.Context, localPath, bookID string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(localPath), ".")
	if ext == "" {
		ext = "jpg"
	}
	key := fmt.Sprintf("covers/%s", sandbox.CoverFileName(bookID, ext))
	return t.Upload(ctx, localPath, key, nil)
}

// progressWriter counts bytes and reports floor(100*done/total), clamped to
// 100. With an unknown total it stays at 0 until complete() forces 100.
type progressWriter struct {
	total      int64
	done       int64
	last       int
	onProgress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.done += int64(len(p))
	if w.onProgress == nil || w.total <= 0 {
		return len(p), nil
	}
	percent := int(100 * w.done / w.total)
	if percent > 100 {
		percent = 100
	}
	if percent > w.last {
		w.last = percent
		w.onProgress(percent)
	}
	return len(p), nil
}

// complete reports exactly 100 once the transfer has finished.
func (w *progressWriter) complete() {
	if w.onProgress == nil {
		return
	}
	if w.last < 100 {
		w.last = 100
		w.onProgress(100)
	}
}
