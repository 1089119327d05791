// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"strings"
)

// Document is the structured content tree returned by the document store.
// Indices throughout are offsets into the document's flattened text
// stream; any insert or delete invalidates every index after it.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title,omitempty"`
	Body       Body   `json:"body"`
}

// Body holds the document's top-level structural elements in order.
type Body struct {
	Content []StructuralElement `json:"content"`
}

// StructuralElement is one node of the document tree. Exactly one of
// Paragraph, Table, or SectionBreak is non-nil.
type StructuralElement struct {
	StartIndex   int           `json:"startIndex"`
	EndIndex     int           `json:"endIndex"`
	Paragraph    *Paragraph    `json:"paragraph,omitempty"`
	Table        *Table        `json:"table,omitempty"`
	SectionBreak *SectionBreak `json:"sectionBreak,omitempty"`
}

// Paragraph is a run of text ending in a newline, possibly styled as a
// heading.
type Paragraph struct {
	Elements       []ParagraphElement `json:"elements"`
	ParagraphStyle *ParagraphStyle    `json:"paragraphStyle,omitempty"`
}

// Text concatenates the paragraph's text-run contents.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, el := range p.Elements {
		if el.TextRun != nil {
			b.WriteString(el.TextRun.Content)
		}
	}
	return b.String()
}

// ParagraphStyle carries the named style and, for headings, the store's
// stable heading identity.
type ParagraphStyle struct {
	NamedStyleType string `json:"namedStyleType,omitempty"`
	HeadingID      string `json:"headingId,omitempty"`
}

// headingStylePrefix matches the store's HEADING_1..HEADING_6 styles.
const headingStylePrefix = "HEADING_"

// HeadingLevel returns the heading level (1-6) for a heading-styled
// paragraph, or 0 when the style is not a heading.
func (s *ParagraphStyle) HeadingLevel() int {
	if s == nil || !strings.HasPrefix(s.NamedStyleType, headingStylePrefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s.NamedStyleType, headingStylePrefix))
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

// ParagraphElement is one text run within a paragraph.
type ParagraphElement struct {
	StartIndex int      `json:"startIndex"`
	EndIndex   int      `json:"endIndex"`
	TextRun    *TextRun `json:"textRun,omitempty"`
}

// TextRun is a contiguous span of text sharing one style.
type TextRun struct {
	Content   string     `json:"content"`
	TextStyle *TextStyle `json:"textStyle,omitempty"`
}

// Link returns the run's hyperlink, or nil when the run is unlinked.
func (r *TextRun) Link() *Link {
	if r == nil || r.TextStyle == nil {
		return nil
	}
	return r.TextStyle.Link
}

// TextStyle carries the character formatting of a text run. Only the
// hyperlink is modeled; the pipeline never touches other styling.
type TextStyle struct {
	Link *Link `json:"link,omitempty"`
}

// Link is a hyperlink target: an external URL or an internal heading.
type Link struct {
	URL       string `json:"url,omitempty"`
	HeadingID string `json:"headingId,omitempty"`
}

// Table is a structural table node. The pipeline does not descend into
// tables; markers inside cells are not supported.
type Table struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// SectionBreak is a structural section boundary.
type SectionBreak struct{}
