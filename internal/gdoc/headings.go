// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gdoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/drive-sync/internal/markdown"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// IndexHeadings walks a document in order and builds the slug-to-entry
// table for anchor conversion. Duplicate heading text disambiguates in
// document order with -1, -2 suffixes; the counter map lives and dies
// with this one pass.
//
// Headings the store gave no stable identity, and headings whose text
// slugifies to nothing, are skipped with a warning; they cannot be
// link targets.
func IndexHeadings(doc *types.Document, w io.Writer) map[string]types.HeadingEntry {
	headings := make(map[string]types.HeadingEntry)
	seen := map[string]int{}

	for _, el := range doc.Body.Content {
		p := el.Paragraph
		if p == nil {
			continue
		}
		level := p.ParagraphStyle.HeadingLevel()
		if level == 0 {
			continue
		}

		text := strings.TrimRight(p.Text(), "\n")

		if p.ParagraphStyle.HeadingID == "" {
			fmt.Fprintf(w, "warning: heading %q has no heading id, skipping\n", text)
			continue
		}
		if text == "" {
			continue
		}

		base := markdown.Slugify(text)
		if base == "" {
			fmt.Fprintf(w, "warning: heading %q produces an empty slug, skipping\n", text)
			continue
		}

		slug := markdown.UniqueSlug(base, seen)
		headings[slug] = types.HeadingEntry{
			Slug:       slug,
			Text:       text,
			Level:      level,
			HeadingID:  p.ParagraphStyle.HeadingID,
			StartIndex: el.StartIndex,
		}
	}

	return headings
}
