package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_QueryByOwner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/books", r.URL.Path)
		assert.Equal(t, "user-1", r.URL.Query().Get("userId"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"documents": [
				{"id": "b1", "fields": {"title": "First", "author": "A", "fileUrl": "books/b1.epub", "userId": "user-1", "fileSize": 1024}},
				{"id": "b2", "fields": {"title": "Second", "userId": "user-1"}}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	records, err := client.QueryByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b1", records[0].ID)
	assert.Equal(t, "First", records[0].Title)
	assert.Equal(t, "books/b1.epub", records[0].FileURL)
	assert.Equal(t, int64(1024), records[0].FileSize)
	assert.Equal(t, "b2", records[1].ID)
}

func TestClient_QueryByOwner_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.QueryByOwner(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Put(t *testing.T) {
	var received Record
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/catalog/books/b1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	err := client.Put(context.Background(), "b1", Record{Title: "First", UserID: "user-1", UploadDate: 1700000000000})
	require.NoError(t, err)
	assert.Equal(t, "First", received.Title)
	assert.Equal(t, int64(1700000000000), received.UploadDate)
}

func TestClient_Remove(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/catalog/books/b1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	require.NoError(t, client.Remove(context.Background(), "b1"))
}

func TestClient_Fetch_RelativeKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blobs/books/b1.txt", r.URL.Path)
		io.WriteString(w, "blob body")
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	body, size, err := client.Fetch(context.Background(), "books/b1.txt")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "blob body", string(data))
	assert.Equal(t, int64(len("blob body")), size)
}

func TestClient_Fetch_AbsoluteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/somewhere/else.pdf", r.URL.Path)
		io.WriteString(w, "pdf bytes")
	}))
	defer server.Close()

	client := NewClient("http://unreachable.invalid", "")
	body, _, err := client.Fetch(context.Background(), server.URL+"/somewhere/else.pdf")
	require.NoError(t, err)
	body.Close()
}

func TestClient_Store(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/blobs/books/b1.txt", r.URL.Path)

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"url": "https://cdn.example.com/books/b1.txt"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	ref, err := client.Store(context.Background(), "books/b1.txt", strings.NewReader("payload"), 7)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/books/b1.txt", ref)
}

func TestClient_Store_NoURLInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	ref, err := client.Store(context.Background(), "books/b1.txt", strings.NewReader("payload"), 7)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/blobs/books/b1.txt", ref)
}

func TestStaticCredentials(t *testing.T) {
	id, err := StaticCredentials{UserID: "user-1"}.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = StaticCredentials{}.CurrentUserID(context.Background())
	assert.Error(t, err)
}
