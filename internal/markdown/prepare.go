// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/drive-sync/pkg/types"
)

// PrepareOptions selects which transforms run during preparation.
type PrepareOptions struct {
	// ExtractDiagrams replaces mermaid fences with markers.
	ExtractDiagrams bool

	// ExtractImages replaces local image references with markers.
	ExtractImages bool

	// FormatCode applies the code-block readability transform.
	FormatCode bool
}

// Prepared is a Markdown file processed for upload.
type Prepared struct {
	// Name is the document name, the source filename without extension.
	Name string

	// Content is the transformed Markdown, markers in place.
	Content string

	// Diagrams lists extracted mermaid blocks in document order.
	Diagrams []types.DiagramRef

	// Images lists extracted local image references, one per unique path.
	Images []types.ImageRef
}

// Prepare reads a Markdown file and runs the upload transforms.
// Extraction runs before code formatting: the formatter consumes the
// fence and backtick syntax both extractors match on.
func Prepare(path string, opts PrepareOptions) (*Prepared, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)

	var diagrams []types.DiagramRef
	var images []types.ImageRef

	if opts.ExtractDiagrams {
		content, diagrams = ExtractDiagrams(content)
	}
	if opts.ExtractImages {
		content, images = ExtractImages(content, path)
	}
	if opts.FormatCode {
		content = FormatCodeBlocks(content)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Prepared{
		Name:     name,
		Content:  content,
		Diagrams: diagrams,
		Images:   images,
	}, nil
}
