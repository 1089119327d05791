// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "drive-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RenderMode selects how diagram assets are turned into embeddable URLs.
type RenderMode string

const (
	// RenderLocal always renders bytes and uploads them to the asset store.
	RenderLocal RenderMode = "local"
	// RenderAPI embeds the renderer's direct URL when it fits the store's
	// URL length limit, uploading only as a fallback.
	RenderAPI RenderMode = "api"
	// RenderHybrid tries the render-and-upload path first and falls back
	// to a direct URL when rendering or uploading fails.
	RenderHybrid RenderMode = "hybrid"
)

// DirectURLLimit is the longest URL the document store accepts for an
// inline image. Direct renderer URLs above this length force an upload.
const DirectURLLimit = 2000

// RenderConfig holds settings for diagram rendering.
type RenderConfig struct {
	HTTPConfig `yaml:",inline"`

	// Mode selects the rendering strategy: local, api, or hybrid.
	Mode RenderMode `json:"mode" yaml:"mode"`

	// Format is the rendered image format (png, svg).
	Format string `json:"format" yaml:"format"`

	// Theme is the diagram theme (default, dark, forest, neutral).
	Theme string `json:"theme" yaml:"theme"`

	// Background is the rendered background color.
	Background string `json:"background" yaml:"background"`
}

// SyncConfig holds settings for the directory sync pipeline.
type SyncConfig struct {
	HTTPConfig `yaml:",inline"`

	// FolderID is the remote folder that receives synced documents.
	FolderID string `json:"folder_id" yaml:"folder_id"`

	// RateLimitDelay is the minimum gap between consecutive store calls
	// (default 500ms).
	RateLimitDelay time.Duration `json:"rate_limit_delay" yaml:"rate_limit_delay"`

	// BatchSize is the number of files synced between cache saves (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// CacheDir is the directory holding the change-detection database.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// UseCache enables skip-if-unchanged detection.
	UseCache bool `json:"use_cache" yaml:"use_cache"`

	// EnableDiagrams controls mermaid extraction and embedding.
	EnableDiagrams bool `json:"enable_diagrams" yaml:"enable_diagrams"`

	// EnableImages controls local image extraction and embedding.
	EnableImages bool `json:"enable_images" yaml:"enable_images"`

	// EnableAnchorLinks controls heading-anchor link conversion.
	EnableAnchorLinks bool `json:"enable_anchor_links" yaml:"enable_anchor_links"`

	// FormatCode controls the code-block readability transform.
	FormatCode bool `json:"format_code" yaml:"format_code"`

	// Exclude lists glob patterns skipped during directory walks.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// DefaultSyncConfig returns a SyncConfig with production defaults.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		HTTPConfig:        HTTPConfig{Timeout: 30 * time.Second, UserAgent: "drive-sync/0.1"},
		RateLimitDelay:    500 * time.Millisecond,
		BatchSize:         10,
		CacheDir:          "cache",
		UseCache:          true,
		EnableDiagrams:    true,
		EnableImages:      true,
		EnableAnchorLinks: true,
		FormatCode:        true,
	}
}

// DefaultRenderConfig returns a RenderConfig with production defaults.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "drive-sync/0.1"},
		Mode:       RenderLocal,
		Format:     "png",
		Theme:      "default",
		Background: "white",
	}
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Sync   SyncConfig   `json:"sync" yaml:"sync"`
	Render RenderConfig `json:"render" yaml:"render"`
}
