// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gdoc

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/drive-sync/pkg/types"
)

// FindAnchorLinks scans a document for same-document hyperlinks: runs
// whose link URL starts with "#" and carries no scheme. External links
// and other schemes are ignored outright. Results are in document
// order.
func FindAnchorLinks(doc *types.Document) []types.AnchorLink {
	var links []types.AnchorLink

	for _, el := range doc.Body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			link := pe.TextRun.Link()
			if link == nil {
				continue
			}
			url := link.URL
			if !strings.HasPrefix(url, "#") || strings.Contains(url, "://") {
				continue
			}

			links = append(links, types.AnchorLink{
				Slug:       strings.TrimPrefix(url, "#"),
				StartIndex: pe.StartIndex,
				EndIndex:   pe.EndIndex,
				Text:       strings.TrimSpace(pe.TextRun.Content),
			})
		}
	}

	return links
}

// ConvertAnchorLinks rewrites anchor links to native heading-identity
// links. Links whose slug has no heading entry are skipped with a
// warning. All surviving rewrites go to the store as one batch, ordered
// by descending start index, and the count of submitted rewrites is
// returned.
//
// An empty link list returns 0 without contacting the store.
func ConvertAnchorLinks(ctx context.Context, store DocumentStore, docID string, headings map[string]types.HeadingEntry, links []types.AnchorLink, w io.Writer) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	sorted := make([]types.AnchorLink, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartIndex > sorted[j].StartIndex
	})

	var requests []types.Request
	for _, link := range sorted {
		entry, ok := headings[link.Slug]
		if !ok {
			fmt.Fprintf(w, "warning: no heading found for anchor #%s, skipping\n", link.Slug)
			continue
		}
		requests = append(requests, types.NewHeadingLink(link.StartIndex, link.EndIndex, entry.HeadingID))
	}

	if len(requests) == 0 {
		return 0, nil
	}

	if err := store.BatchUpdate(ctx, docID, requests); err != nil {
		return 0, fmt.Errorf("converting anchor links in %s: %w", docID, err)
	}
	return len(requests), nil
}

// ProcessAnchorLinks runs the full anchor conversion for one document:
// fetch once, index headings, scan links, convert. Documents without
// headings or without anchor links return 0 with no mutation.
func ProcessAnchorLinks(ctx context.Context, store DocumentStore, docID string, w io.Writer) (int, error) {
	doc, err := store.Get(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("fetching document %s: %w", docID, err)
	}

	headings := IndexHeadings(doc, w)
	if len(headings) == 0 {
		return 0, nil
	}

	links := FindAnchorLinks(doc)
	if len(links) == 0 {
		return 0, nil
	}

	return ConvertAnchorLinks(ctx, store, docID, headings, links, w)
}
