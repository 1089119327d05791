// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/drive-sync/internal/httputil"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// DocumentStore is the capability the pipeline needs from the document
// backend: fetch a structured snapshot, and apply a batch of edits as
// one transaction.
type DocumentStore interface {
	// Get returns the document's current structured content tree.
	Get(ctx context.Context, docID string) (*types.Document, error)

	// BatchUpdate applies the requests atomically, in order.
	BatchUpdate(ctx context.Context, docID string, requests []types.Request) error
}

// docsAPIBase is the document REST endpoint. Declared as a var so tests
// can substitute an httptest server.
var docsAPIBase = "https://docs.googleapis.com/v1/documents"

// Client is a DocumentStore over the REST API. The HTTP client is
// expected to carry authorization; auth is not this package's concern.
type Client struct {
	HTTP *http.Client

	// Limiter, when set, enforces the minimum gap between store calls.
	Limiter *httputil.Limiter

	// BaseURL overrides the API endpoint; empty means production.
	BaseURL string
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return docsAPIBase
}

func (c *Client) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}

// Get fetches the document's structured content tree.
func (c *Client) Get(ctx context.Context, docID string) (*types.Document, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/"+docID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", docID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document store returned HTTP %d for %s", resp.StatusCode, docID)
	}

	var doc types.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", docID, err)
	}
	return &doc, nil
}

// batchUpdateBody is the wire envelope for a batch of edit operations.
type batchUpdateBody struct {
	Requests []types.Request `json:"requests"`
}

// BatchUpdate submits the requests as one transactional batch.
func (c *Client) BatchUpdate(ctx context.Context, docID string, requests []types.Request) error {
	if len(requests) == 0 {
		return nil
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(batchUpdateBody{Requests: requests})
	if err != nil {
		return fmt.Errorf("marshaling batch update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base()+"/"+docID+":batchUpdate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return fmt.Errorf("batch update for %s: %w", docID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("document store returned HTTP %d for %s: %s", resp.StatusCode, docID, msg)
	}
	return nil
}
