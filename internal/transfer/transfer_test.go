package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/sandbox"
)

// fakeBlobService is an in-memory remote.BlobService.
type fakeBlobService struct {
	blobs     map[string][]byte
	fetchErr  error
	storeErr  error
	storedKey string
	hideSize  bool
}

func newFakeBlobService() *fakeBlobService {
	return &fakeBlobService{blobs: map[string][]byte{}}
}

func (f *fakeBlobService) Fetch(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	if f.fetchErr != nil {
		return nil, 0, f.fetchErr
	}
	data, ok := f.blobs[ref]
	if !ok {
		return nil, 0, fmt.Errorf("blob not found: %s", ref)
	}
	size := int64(len(data))
	if f.hideSize {
		size = 0
	}
	return io.NopCloser(bytes.NewReader(data)), size, nil
}

func (f *fakeBlobService) Store(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.blobs[key] = data
	f.storedKey = key
	return "https://blobs.example.com/" + key, nil
}

func setup(t *testing.T) (*Transferrer, *fakeBlobService, *sandbox.Store) {
	store, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	blobs := newFakeBlobService()
	return New(blobs, store), blobs, store
}

func TestTransferrer_Download(t *testing.T) {
	tr, blobs, store := setup(t)
	content := bytes.Repeat([]byte("shelf"), 1000)
	blobs.blobs["books/a1.txt"] = content

	path, size, err := tr.Download(context.Background(), "a1", "books/a1.txt", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), size)
	assert.True(t, store.Contains(path))
	assert.True(t, strings.HasSuffix(path, ".txt"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestTransferrer_Download_ProgressMonotonicAndReaches100(t *testing.T) {
	tr, blobs, _ := setup(t)
	blobs.blobs["books/a1.pdf"] = bytes.Repeat([]byte("x"), 1<<16)

	var percents []int
	_, _, err := tr.Download(context.Background(), "a1", "books/a1.pdf", func(p int) {
		percents = append(percents, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, percents)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestTransferrer_Download_UnknownSizeStillReaches100(t *testing.T) {
	tr, blobs, _ := setup(t)
	blobs.blobs["books/a1.epub"] = []byte("payload")
	blobs.hideSize = true

	var percents []int
	_, size, err := tr.Download(context.Background(), "a1", "books/a1.epub", func(p int) {
		percents = append(percents, p)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), size)
	assert.Equal(t, []int{100}, percents)
}

func TestTransferrer_Download_RemoteErrorSurfacesTransferError(t *testing.T) {
	tr, blobs, _ := setup(t)
	blobs.fetchErr = errors.New("connection reset")

	_, _, err := tr.Download(context.Background(), "a1", "books/a1.pdf", nil)
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "download", terr.Op)
}

func TestTransferrer_Upload_RoundTrip(t *testing.T) {
	tr, blobs, _ := setup(t)

	src := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(src, []byte("original text"), 0644))

	var percents []int
	ref, err := tr.UploadBook(context.Background(), src, "a1", func(p int) {
		percents = append(percents, p)
	})
	require.NoError(t, err)

	assert.Equal(t, "https://blobs.example.com/books/a1.txt", ref)
	assert.Equal(t, "books/a1.txt", blobs.storedKey)
	assert.Equal(t, []byte("original text"), blobs.blobs["books/a1.txt"])
	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestTransferrer_Upload_MissingFile(t *testing.T) {
	tr, _, _ := setup(t)

	_, err := tr.Upload(context.Background(), "/nonexistent/file.txt", "books/a1.txt", nil)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "upload", terr.Op)
}

func TestTransferrer_UploadCover_Key(t *testing.T) {
	tr, blobs, _ := setup(t)

	src := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(src, []byte{0x89, 0x50}, 0644))

	_, err := tr.UploadCover(context.Background(), src, "a1")
	require.NoError(t, err)
	assert.Equal(t, "covers/cover_a1.png", blobs.storedKey)
}

func TestTransferrer_DownloadThenDecodeTxtRoundTrip(t *testing.T) {
	tr, _, _ := setup(t)

	src := filepath.Join(t.TempDir(), "book.txt")
	original := "Chapter one.\nIt began, as these things do, with a letter.\n"
	require.NoError(t, os.WriteFile(src, []byte(original), 0644))

	ref, err := tr.UploadBook(context.Background(), src, "a1", nil)
	require.NoError(t, err)

	path, _, err := tr.Download(context.Background(), "a1", ref[len("https://blobs.example.com/"):], nil)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(got))
}
