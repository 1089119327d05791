// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gdoc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/drive-sync/pkg/types"
)

// heading builds a heading paragraph with the given level and identity.
func heading(start int, text string, level int, headingID string) types.StructuralElement {
	el := paragraph(start, text+"\n")
	el.Paragraph.ParagraphStyle = &types.ParagraphStyle{
		NamedStyleType: "HEADING_" + string(rune('0'+level)),
		HeadingID:      headingID,
	}
	return el
}

func TestIndexHeadings(t *testing.T) {
	doc := &types.Document{Body: types.Body{Content: []types.StructuralElement{
		heading(1, "Overview", 1, "h.abc123"),
		paragraph(11, "Body text under the overview.\n"),
		heading(41, "Timeline & Rollout Strategy", 2, "h.def456"),
	}}}

	var buf bytes.Buffer
	headings := IndexHeadings(doc, &buf)

	if len(headings) != 2 {
		t.Fatalf("got %d headings, want 2", len(headings))
	}

	ov, ok := headings["overview"]
	if !ok {
		t.Fatal("missing slug overview")
	}
	if ov.HeadingID != "h.abc123" || ov.Level != 1 || ov.Text != "Overview" {
		t.Errorf("overview entry = %+v", ov)
	}
	if ov.StartIndex != 1 {
		t.Errorf("overview start index = %d, want 1", ov.StartIndex)
	}

	// Ampersand drops, both hyphens stay.
	tl, ok := headings["timeline--rollout-strategy"]
	if !ok {
		t.Fatalf("missing slug timeline--rollout-strategy, have %v", slugs(headings))
	}
	if tl.HeadingID != "h.def456" || tl.Level != 2 {
		t.Errorf("timeline entry = %+v", tl)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected warnings: %s", buf.String())
	}
}

func TestIndexHeadings_Duplicates(t *testing.T) {
	doc := &types.Document{Body: types.Body{Content: []types.StructuralElement{
		heading(1, "Overview", 1, "h.one"),
		heading(20, "Overview", 2, "h.two"),
		heading(40, "Overview", 2, "h.three"),
	}}}

	headings := IndexHeadings(doc, &bytes.Buffer{})

	for slug, wantID := range map[string]string{
		"overview":   "h.one",
		"overview-1": "h.two",
		"overview-2": "h.three",
	} {
		entry, ok := headings[slug]
		if !ok {
			t.Errorf("missing slug %q, have %v", slug, slugs(headings))
			continue
		}
		if entry.HeadingID != wantID {
			t.Errorf("slug %q maps to %q, want %q", slug, entry.HeadingID, wantID)
		}
	}
}

func TestIndexHeadings_SkipsUnusable(t *testing.T) {
	doc := &types.Document{Body: types.Body{Content: []types.StructuralElement{
		heading(1, "No Identity", 1, ""),
		heading(20, "🎉🎉", 2, "h.emoji"),
		heading(30, "", 3, ""),
		paragraph(32, "Plain paragraph, not a heading.\n"),
	}}}

	var buf bytes.Buffer
	headings := IndexHeadings(doc, &buf)

	if len(headings) != 0 {
		t.Fatalf("got %d headings, want 0: %v", len(headings), slugs(headings))
	}
	out := buf.String()
	// The missing-identity check runs first, so the empty heading
	// without an id warns too instead of dropping silently.
	if got := strings.Count(out, "no heading id"); got != 2 {
		t.Errorf("got %d heading-id warnings, want 2: %s", got, out)
	}
	if !strings.Contains(out, "empty slug") {
		t.Errorf("missing empty-slug warning in output: %s", out)
	}
}

func TestIndexHeadings_EmptyDocument(t *testing.T) {
	doc := &types.Document{}
	if headings := IndexHeadings(doc, &bytes.Buffer{}); len(headings) != 0 {
		t.Errorf("got %d headings from empty document", len(headings))
	}
}

func slugs(headings map[string]types.HeadingEntry) []string {
	var out []string
	for s := range headings {
		out = append(out, s)
	}
	return out
}
