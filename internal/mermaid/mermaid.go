// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mermaid renders mermaid diagram source to images through the
// mermaid.ink rendering service. The diagram code travels in the URL
// itself (url-safe base64), so rendering is a single GET.
package mermaid

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/drive-sync/internal/httputil"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// renderAPIBase is the rendering service endpoint. Declared as a var so
// tests can substitute an httptest server.
var renderAPIBase = "https://mermaid.ink"

// Renderer renders diagram code via the remote service.
type Renderer struct {
	HTTP *http.Client

	// BaseURL overrides the service endpoint when non-empty.
	BaseURL string

	Config types.RenderConfig
}

// NewRenderer returns a Renderer with the given configuration. Zero
// fields in cfg fall back to the production defaults.
func NewRenderer(client *http.Client, cfg types.RenderConfig) *Renderer {
	def := types.DefaultRenderConfig()
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.Theme == "" {
		cfg.Theme = def.Theme
	}
	if cfg.Background == "" {
		cfg.Background = def.Background
	}
	return &Renderer{HTTP: client, Config: cfg}
}

func (r *Renderer) base() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return renderAPIBase
}

// renderURL encodes the diagram code into a service URL against base.
func (r *Renderer) renderURL(base, code string) string {
	encoded := base64.URLEncoding.EncodeToString([]byte(code))
	params := url.Values{}
	params.Set("type", r.Config.Format)
	params.Set("theme", r.Config.Theme)
	params.Set("bgColor", r.Config.Background)
	return fmt.Sprintf("%s/img/%s?%s", base, encoded, params.Encode())
}

// DirectURL returns the public service URL for the diagram without
// fetching it. The URL renders the diagram on demand, so it can be
// embedded directly when it fits the document store's length limit.
func (r *Renderer) DirectURL(code string) string {
	return r.renderURL(r.base(), code)
}

// pingDiagram is a minimal valid diagram used to probe the service.
const pingDiagram = "graph TD;A-->B;"

// Ping renders a trivial diagram to verify the service is reachable.
// An unreachable renderer makes the whole run pointless, so callers
// treat a failed ping as a setup error.
func (r *Renderer) Ping(ctx context.Context) error {
	if _, err := r.Render(ctx, pingDiagram); err != nil {
		return fmt.Errorf("render service unavailable: %w", err)
	}
	return nil
}

// Render fetches the rendered image bytes for the diagram code.
func (r *Renderer) Render(ctx context.Context, code string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.renderURL(r.base(), code), nil)
	if err != nil {
		return nil, fmt.Errorf("creating render request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, r.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("rendering diagram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render service returned HTTP %d: %s", resp.StatusCode, msg)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rendered image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("render service returned an empty image")
	}
	return data, nil
}
