package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the vendor backend over HTTP. It implements both
// CatalogService and BlobService.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var (
	_ CatalogService = (*Client)(nil)
	_ BlobService    = (*Client)(nil)
)

// NewClient creates a backend client with the given base URL and API token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type queryResponse struct {
	Documents []struct {
		ID     string `json:"id"`
		Fields Record `json:"fields"`
	} `json:"documents"`
}

// QueryByOwner returns all catalog records owned by ownerID.
func (c *Client) QueryByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/catalog/books?userId=%s", c.baseURL, url.QueryEscape(ownerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query catalog: status %d", resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	records := make([]Record, 0, len(parsed.Documents))
	for _, doc := range parsed.Documents {
		record := doc.Fields
		record.ID = doc.ID
		records = append(records, record)
	}
	return records, nil
}

// Put creates or replaces the catalog record stored under id.
func (c *Client) Put(ctx context.Context, id string, record Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	endpoint := fmt.Sprintf("%s/catalog/books/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("put record: status %d", resp.StatusCode)
	}
	return nil
}

// Remove deletes the catalog record stored under id.
func (c *Client) Remove(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/catalog/books/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("remove record: status %d", resp.StatusCode)
	}
	return nil
}

// Fetch opens the blob behind ref for reading. Absolute URLs are fetched
// as-is; bare keys are resolved against the blob endpoint.
func (c *Client) Fetch(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	endpoint := ref
	if !isAbsoluteURL(ref) {
		endpoint = fmt.Sprintf("%s/blobs/%s", c.baseURL, ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch blob: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetch blob: status %d", resp.StatusCode)
	}

	size := resp.ContentLength
	if size < 0 {
		size = 0
	}
	return resp.Body, size, nil
}

// Store streams r into the blob namespace under key and returns the URL of
// the stored blob.
func (c *Client) Store(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	endpoint := fmt.Sprintf("%s/blobs/%s", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, r)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if size > 0 {
		req.ContentLength = size
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("store blob: status %d", resp.StatusCode)
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode store response: %w", err)
	}
	if parsed.URL == "" {
		return endpoint, nil
	}
	return parsed.URL, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func isAbsoluteURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// StaticCredentials is a CredentialProvider that always returns the same
// user id. Useful for single-user deployments and tests.
type StaticCredentials struct {
	UserID string
}

func (s StaticCredentials) CurrentUserID(ctx context.Context) (string, error) {
	if s.UserID == "" {
		return "", fmt.Errorf("no authenticated user")
	}
	return s.UserID, nil
}
