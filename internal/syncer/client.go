package syncer

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"

	"github.com/quillapp/quill-engine/internal/domain"
	"github.com/quillapp/quill-engine/internal/scope"
)

// Client talks to the remote record endpoints. The owner identity travels
// out-of-band as a bearer session token; the server derives the scope from
// it.
type Client struct {
	baseURL string
	session scope.SessionSource
	http    *http.Client
}

// NewClient creates a client for the remote at baseURL.
func NewClient(baseURL string, session scope.SessionSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, session: session, http: httpClient}
}

type bulkRequest struct {
	Records any `json:"records"`
}

type bulkResponse struct {
	OK       bool `json:"ok"`
	Upserted int  `json:"upserted"`
}

type listResponse struct {
	Records []any `json:"records"`
}

// BulkUpsert pushes a full record collection. Idempotent per record id
// within a scope. Returns the server's upserted count.
func (c *Client) BulkUpsert(ctx context.Context, kind domain.Type, records any) (int, error) {
	body, err := json.Marshal(bulkRequest{Records: records})
	if err != nil {
		return 0, fmt.Errorf("marshal records: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, kind, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("bulk upsert: unexpected status %d", resp.StatusCode)
	}

	var parsed bulkResponse
	if err := decode(resp.Body, &parsed); err != nil {
		return 0, fmt.Errorf("bulk upsert: %w", err)
	}
	if !parsed.OK {
		return 0, fmt.Errorf("bulk upsert: server rejected the batch")
	}
	return parsed.Upserted, nil
}

// List fetches the full scoped collection. Never paginated.
func (c *Client) List(ctx context.Context, kind domain.Type) ([]any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, kind, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("list records: unexpected status %d", resp.StatusCode)
	}

	var parsed listResponse
	if err := decode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return parsed.Records, nil
}

func (c *Client) newRequest(ctx context.Context, method string, kind domain.Type, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s/api/v1/records?kind=%s", c.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.session != nil {
		if token := c.session.SessionToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func decode(r io.Reader, dest any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
