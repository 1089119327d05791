// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DiagramRef describes one fenced mermaid block extracted from a source
// file. The Name doubles as the textual marker payload, so it must
// match \w+ exactly.
type DiagramRef struct {
	// Name is the stable marker identity, "mermaid_" + Hash.
	Name string `json:"name" yaml:"name"`

	// Code is the raw diagram source with fence markers stripped.
	Code string `json:"code" yaml:"code"`

	// Hash is the first 8 hex characters of the digest of the trimmed code.
	Hash string `json:"hash" yaml:"hash"`
}

// ImageRef describes one local image reference extracted from a source
// file. References resolving to the same absolute path share one ref.
type ImageRef struct {
	// Name is the stable marker identity, "image_" + hash of Path.
	Name string `json:"name" yaml:"name"`

	// DisplayName is the image filename without extension.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Path is the resolved absolute path on disk.
	Path string `json:"path" yaml:"path"`

	// Alt is the alt text (or the literal reference for inline-code hits).
	Alt string `json:"alt" yaml:"alt"`
}

// MarkerLocation is one marker occurrence inside a document snapshot.
// Indices are valid only against the snapshot that was scanned; any
// preceding mutation invalidates them.
type MarkerLocation struct {
	// Name is the marker payload between the colon and closing bracket.
	Name string

	// StartIndex is the document-space offset of the opening bracket.
	StartIndex int

	// Length is the full marker length including brackets, kind, and colon.
	Length int
}

// HeadingEntry maps one heading's anchor slug to the store's durable
// identity for the heading paragraph. The HeadingID, not the slug, is
// the link target.
type HeadingEntry struct {
	Slug       string
	Text       string
	Level      int
	HeadingID  string
	StartIndex int
}

// AnchorLink is one same-document hyperlink whose target is "#slug".
type AnchorLink struct {
	Slug       string
	StartIndex int
	EndIndex   int
	Text       string
}
