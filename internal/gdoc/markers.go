// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gdoc works against the rich-document store: fetching
// structured document trees, resolving textual markers to document
// offsets, indexing headings, and converting anchor links.
package gdoc

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/pdiddy/drive-sync/pkg/types"
)

// MarkerKind selects which marker family a scan resolves.
type MarkerKind string

const (
	MarkerDiagram MarkerKind = "DIAGRAM"
	MarkerImage   MarkerKind = "IMAGE"
)

// markerRe returns the pattern for one marker kind. The payload is
// restricted to \w+ so a scan can never run across marker boundaries.
func markerRe(kind MarkerKind) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`\[%s:(\w+)\]`, kind))
}

// FindMarkers scans a document snapshot for [KIND:name] markers and
// returns their locations in document order. A marker's start index is
// the containing run's start index plus the marker's character offset
// within the run.
//
// The returned indices are valid only against the snapshot that was
// scanned: any mutation that changes document length invalidates every
// later index, so callers must re-scan after each mutating call.
func FindMarkers(doc *types.Document, kind MarkerKind) []types.MarkerLocation {
	re := markerRe(kind)
	var markers []types.MarkerLocation

	for _, el := range doc.Body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun == nil {
				continue
			}
			content := pe.TextRun.Content

			for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
				// Indices from the regexp are byte positions; the
				// document's offset space counts characters.
				offset := utf8.RuneCountInString(content[:m[0]])
				length := utf8.RuneCountInString(content[m[0]:m[1]])

				markers = append(markers, types.MarkerLocation{
					Name:       content[m[2]:m[3]],
					StartIndex: pe.StartIndex + offset,
					Length:     length,
				})
			}
		}
	}

	return markers
}
