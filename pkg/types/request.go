// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Request is one document mutation operation. Exactly one of the three
// fields is non-nil; the zero Request is invalid.
//
// Batch contract: operations that change document length (delete,
// insert) shift every index after their position. A batch touching
// multiple ranges of one document must either be ordered by descending
// start index or re-resolved against a fresh snapshot between calls.
// Style-only updates do not move indices but follow the same ordering
// for uniformity.
type Request struct {
	DeleteContentRange *DeleteContentRangeRequest `json:"deleteContentRange,omitempty"`
	InsertInlineImage  *InsertInlineImageRequest  `json:"insertInlineImage,omitempty"`
	UpdateTextStyle    *UpdateTextStyleRequest    `json:"updateTextStyle,omitempty"`
}

// Range is a half-open [StartIndex, EndIndex) span of document text.
type Range struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// Location is a single document-space insertion point.
type Location struct {
	Index int `json:"index"`
}

// DeleteContentRangeRequest removes the text in Range.
type DeleteContentRangeRequest struct {
	Range Range `json:"range"`
}

// Dimension is a magnitude with a layout unit (points).
type Dimension struct {
	Magnitude float64 `json:"magnitude"`
	Unit      string  `json:"unit"`
}

// Size is a fixed display size for an embedded object.
type Size struct {
	Height Dimension `json:"height"`
	Width  Dimension `json:"width"`
}

// InsertInlineImageRequest places an image from URI at Location, scaled
// to ObjectSize.
type InsertInlineImageRequest struct {
	Location   Location `json:"location"`
	URI        string   `json:"uri"`
	ObjectSize Size     `json:"objectSize"`
}

// UpdateTextStyleRequest rewrites the text style of Range. Fields names
// the style properties being written ("link" for anchor conversion).
type UpdateTextStyleRequest struct {
	Range     Range     `json:"range"`
	TextStyle TextStyle `json:"textStyle"`
	Fields    string    `json:"fields"`
}

// NewDeleteRange builds a delete operation for [start, end).
func NewDeleteRange(start, end int) Request {
	return Request{DeleteContentRange: &DeleteContentRangeRequest{
		Range: Range{StartIndex: start, EndIndex: end},
	}}
}

// NewInsertInlineImage builds an insert operation placing uri at index
// with a fixed width and height in points.
func NewInsertInlineImage(index int, uri string, widthPt, heightPt float64) Request {
	return Request{InsertInlineImage: &InsertInlineImageRequest{
		Location: Location{Index: index},
		URI:      uri,
		ObjectSize: Size{
			Height: Dimension{Magnitude: heightPt, Unit: "PT"},
			Width:  Dimension{Magnitude: widthPt, Unit: "PT"},
		},
	}}
}

// NewHeadingLink builds a style update pointing [start, end) at a
// heading's stable identity.
func NewHeadingLink(start, end int, headingID string) Request {
	return Request{UpdateTextStyle: &UpdateTextStyleRequest{
		Range:     Range{StartIndex: start, EndIndex: end},
		TextStyle: TextStyle{Link: &Link{HeadingID: headingID}},
		Fields:    "link",
	}}
}
