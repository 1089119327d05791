// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed replaces the text markers a converted document carries
// with rendered inline images. Each asset becomes one atomic batch of
// delete-marker + insert-image, resolved against a fresh document
// snapshot so earlier mutations cannot invalidate the indices.
package embed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/drive-sync/internal/drive"
	"github.com/pdiddy/drive-sync/internal/gdoc"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// Display sizes in points. Diagrams get most of the page width; images
// sit at roughly 40% with a 16:10 aspect.
const (
	diagramWidthPt  = 500
	diagramHeightPt = 350
	imageWidthPt    = 280
	imageHeightPt   = 175
)

// Subfolder names for uploaded assets, created lazily under the synced
// document's folder.
const (
	diagramFolderName = "Diagram Images"
	imageFolderName   = "Embedded Images"
)

// AssetStore is the slice of the asset-store client the embedder needs.
type AssetStore interface {
	UploadBytes(ctx context.Context, data []byte, name, folderID, mimeType string) (drive.FileMeta, error)
	GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error)
	SetPublic(ctx context.Context, fileID string) error
}

// Renderer turns diagram source into image bytes or a direct URL.
type Renderer interface {
	Render(ctx context.Context, code string) ([]byte, error)
	DirectURL(code string) string
}

// Result summarizes one embedding pass.
type Result struct {
	Embedded int
	Skipped  int
	Failed   int
}

// Total returns the number of assets processed.
func (r Result) Total() int {
	return r.Embedded + r.Skipped + r.Failed
}

// HasFailures reports whether any asset failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Embedder embeds extracted assets into a converted document.
type Embedder struct {
	docs     gdoc.DocumentStore
	assets   AssetStore
	renderer Renderer
	cfg      types.RenderConfig
	w        io.Writer

	// Lazily created per-embedder asset subfolders, keyed by name.
	folders map[string]string
}

// NewEmbedder returns an Embedder writing progress to w.
func NewEmbedder(docs gdoc.DocumentStore, assets AssetStore, renderer Renderer, cfg types.RenderConfig, w io.Writer) *Embedder {
	return &Embedder{
		docs:     docs,
		assets:   assets,
		renderer: renderer,
		cfg:      cfg,
		w:        w,
		folders:  map[string]string{},
	}
}

// folder returns the asset subfolder's ID, creating it on first use.
func (e *Embedder) folder(ctx context.Context, name, parentID string) (string, error) {
	if id, ok := e.folders[name]; ok {
		return id, nil
	}
	id, err := e.assets.GetOrCreateFolder(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("creating folder %s: %w", name, err)
	}
	e.folders[name] = id
	return id, nil
}

// upload stores the bytes, makes them publicly readable, and returns
// the view URL the document store can fetch. A failed public grant is
// only a warning: the file may already inherit access.
func (e *Embedder) upload(ctx context.Context, data []byte, name, folderID, mimeType string) (string, error) {
	file, err := e.assets.UploadBytes(ctx, data, name, folderID, mimeType)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := e.assets.SetPublic(ctx, file.ID); err != nil {
		fmt.Fprintf(e.w, "warning: could not make %s public: %v\n", name, err)
	}
	return drive.ViewURL(file.ID), nil
}

// uploadDiagram renders the diagram and stores the image, returning the
// view URL.
func (e *Embedder) uploadDiagram(ctx context.Context, ref types.DiagramRef, parentID string) (string, error) {
	data, err := e.renderer.Render(ctx, ref.Code)
	if err != nil {
		return "", err
	}
	folderID, err := e.folder(ctx, diagramFolderName, parentID)
	if err != nil {
		return "", err
	}
	return e.upload(ctx, data, ref.Name+".png", folderID, "image/png")
}

// diagramURL picks the embeddable URL for one diagram according to the
// render mode.
func (e *Embedder) diagramURL(ctx context.Context, ref types.DiagramRef, parentID string) (string, error) {
	switch e.cfg.Mode {
	case types.RenderAPI:
		direct := e.renderer.DirectURL(ref.Code)
		if len(direct) <= types.DirectURLLimit {
			return direct, nil
		}
		fmt.Fprintf(e.w, "direct URL too long for %s (%d bytes), uploading instead\n", ref.Name, len(direct))
		return e.uploadDiagram(ctx, ref, parentID)

	case types.RenderHybrid:
		url, err := e.uploadDiagram(ctx, ref, parentID)
		if err == nil {
			return url, nil
		}
		fmt.Fprintf(e.w, "warning: upload path failed for %s, trying direct URL: %v\n", ref.Name, err)
		direct := e.renderer.DirectURL(ref.Code)
		if len(direct) > types.DirectURLLimit {
			return "", fmt.Errorf("no embeddable URL for %s: upload failed and direct URL is %d bytes", ref.Name, len(direct))
		}
		return direct, nil

	default: // local
		return e.uploadDiagram(ctx, ref, parentID)
	}
}

// replaceMarker finds the named marker against a fresh snapshot and
// submits the delete+insert batch. Returns false when the marker is
// not in the document.
func (e *Embedder) replaceMarker(ctx context.Context, docID string, kind gdoc.MarkerKind, name, url string, widthPt, heightPt float64) (bool, error) {
	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		return false, fmt.Errorf("fetching document %s: %w", docID, err)
	}

	var marker *types.MarkerLocation
	for _, m := range gdoc.FindMarkers(doc, kind) {
		if m.Name == name {
			marker = &m
			break
		}
	}
	if marker == nil {
		return false, nil
	}

	requests := []types.Request{
		types.NewDeleteRange(marker.StartIndex, marker.StartIndex+marker.Length),
		types.NewInsertInlineImage(marker.StartIndex, url, widthPt, heightPt),
	}
	if err := e.docs.BatchUpdate(ctx, docID, requests); err != nil {
		return false, fmt.Errorf("embedding %s: %w", name, err)
	}
	return true, nil
}

// EmbedDiagrams renders and embeds the extracted diagrams into the
// document, in extraction order. A failed diagram is reported and
// skipped; the pass continues.
func (e *Embedder) EmbedDiagrams(ctx context.Context, docID string, refs []types.DiagramRef, parentID string) Result {
	var res Result
	for _, ref := range refs {
		url, err := e.diagramURL(ctx, ref, parentID)
		if err != nil {
			fmt.Fprintf(e.w, "failed: diagram %s: %v\n", ref.Name, err)
			res.Failed++
			continue
		}

		ok, err := e.replaceMarker(ctx, docID, gdoc.MarkerDiagram, ref.Name, url, diagramWidthPt, diagramHeightPt)
		if err != nil {
			fmt.Fprintf(e.w, "failed: diagram %s: %v\n", ref.Name, err)
			res.Failed++
			continue
		}
		if !ok {
			fmt.Fprintf(e.w, "warning: no marker found for diagram %s\n", ref.Name)
			res.Skipped++
			continue
		}

		fmt.Fprintf(e.w, "embedded: diagram %s\n", ref.Name)
		res.Embedded++
	}
	return res
}

// EmbedImages uploads and embeds the extracted local images into the
// document. Missing files and failed refs are reported and skipped.
func (e *Embedder) EmbedImages(ctx context.Context, docID string, refs []types.ImageRef, parentID string) Result {
	var res Result
	for _, ref := range refs {
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			fmt.Fprintf(e.w, "warning: image file not found: %s\n", ref.Path)
			res.Skipped++
			continue
		}

		folderID, err := e.folder(ctx, imageFolderName, parentID)
		if err != nil {
			fmt.Fprintf(e.w, "failed: image %s: %v\n", ref.DisplayName, err)
			res.Failed++
			continue
		}

		name := ref.DisplayName + filepath.Ext(ref.Path)
		url, err := e.upload(ctx, data, name, folderID, types.ImageMIME(ref.Path))
		if err != nil {
			fmt.Fprintf(e.w, "failed: image %s: %v\n", ref.DisplayName, err)
			res.Failed++
			continue
		}

		ok, err := e.replaceMarker(ctx, docID, gdoc.MarkerImage, ref.Name, url, imageWidthPt, imageHeightPt)
		if err != nil {
			fmt.Fprintf(e.w, "failed: image %s: %v\n", ref.DisplayName, err)
			res.Failed++
			continue
		}
		if !ok {
			fmt.Fprintf(e.w, "warning: no marker found for image %s\n", ref.Name)
			res.Skipped++
			continue
		}

		fmt.Fprintf(e.w, "embedded: image %s\n", ref.DisplayName)
		res.Embedded++
	}
	return res
}
