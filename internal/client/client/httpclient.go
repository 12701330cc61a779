package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

// HTTPClient implements Client over the server's JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the given base URL, e.g.
// "http://127.0.0.1:8080". The underlying http.Client carries a request
// timeout; once a batch is sent there is no cancellation beyond it.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Ping probes server reachability. Used by the online watcher.
func (c *HTTPClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/api/health", &out)
}

// Sync posts one atomic batch and decodes the per-operation outcomes and the
// snapshot pull.
func (c *HTTPClient) Sync(ctx context.Context, req protocol.SyncRequest) (*protocol.SyncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sync", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: %s", ErrBadStatus, resp.Status, string(b))
	}

	var out protocol.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sync response: %w", err)
	}
	return &out, nil
}

// PullItems fetches all live items for the bootstrap pull.
func (c *HTTPClient) PullItems(ctx context.Context) ([]protocol.Item, error) {
	var out []protocol.Item
	if err := c.get(ctx, "/api/items", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PullFolders fetches all live folders for the bootstrap pull.
func (c *HTTPClient) PullFolders(ctx context.Context) ([]protocol.Folder, error) {
	var out []protocol.Folder
	if err := c.get(ctx, "/api/folders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s: %s", ErrBadStatus, resp.Status, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
