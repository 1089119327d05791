// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/drive-sync/internal/drive"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// fakeDocs serves a document whose content always carries the given
// markers and records every batch.
type fakeDocs struct {
	doc     *types.Document
	batches [][]types.Request
	updErr  error
}

func (d *fakeDocs) Get(ctx context.Context, docID string) (*types.Document, error) {
	return d.doc, nil
}

func (d *fakeDocs) BatchUpdate(ctx context.Context, docID string, requests []types.Request) error {
	if d.updErr != nil {
		return d.updErr
	}
	d.batches = append(d.batches, requests)
	return nil
}

// markerDoc builds a document containing one marker paragraph per name.
func markerDoc(kind string, names ...string) *types.Document {
	doc := &types.Document{}
	index := 1
	for _, name := range names {
		text := fmt.Sprintf("[%s:%s]\n", kind, name)
		end := index + len([]rune(text))
		doc.Body.Content = append(doc.Body.Content, types.StructuralElement{
			StartIndex: index,
			EndIndex:   end,
			Paragraph: &types.Paragraph{Elements: []types.ParagraphElement{{
				StartIndex: index,
				EndIndex:   end,
				TextRun:    &types.TextRun{Content: text},
			}}},
		})
		index = end
	}
	return doc
}

type uploadCall struct {
	name     string
	folderID string
	mimeType string
	size     int
}

type fakeAssets struct {
	uploads   []uploadCall
	folders   []string
	public    []string
	uploadErr error
	folderErr error
	publicErr error
}

func (a *fakeAssets) UploadBytes(ctx context.Context, data []byte, name, folderID, mimeType string) (drive.FileMeta, error) {
	if a.uploadErr != nil {
		return drive.FileMeta{}, a.uploadErr
	}
	a.uploads = append(a.uploads, uploadCall{name: name, folderID: folderID, mimeType: mimeType, size: len(data)})
	return drive.FileMeta{ID: fmt.Sprintf("file-%d", len(a.uploads)), Name: name}, nil
}

func (a *fakeAssets) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if a.folderErr != nil {
		return "", a.folderErr
	}
	a.folders = append(a.folders, name)
	return "folder-" + name, nil
}

func (a *fakeAssets) SetPublic(ctx context.Context, fileID string) error {
	if a.publicErr != nil {
		return a.publicErr
	}
	a.public = append(a.public, fileID)
	return nil
}

type fakeRenderer struct {
	data      []byte
	directURL string
	renderErr error
	renders   int
}

func (r *fakeRenderer) Render(ctx context.Context, code string) ([]byte, error) {
	if r.renderErr != nil {
		return nil, r.renderErr
	}
	r.renders++
	return r.data, nil
}

func (r *fakeRenderer) DirectURL(code string) string {
	return r.directURL
}

func diagramRef(name string) types.DiagramRef {
	return types.DiagramRef{Name: name, Code: "graph TD\n A --> B", Hash: strings.TrimPrefix(name, "mermaid_")}
}

func TestEmbedDiagrams_LocalMode(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_ab12cd34")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{data: []byte("png-bytes")}
	cfg := types.RenderConfig{Mode: types.RenderLocal}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, renderer, cfg, &buf)
	res := e.EmbedDiagrams(context.Background(), "doc-1", []types.DiagramRef{diagramRef("mermaid_ab12cd34")}, "parent-1")

	if res != (Result{Embedded: 1}) {
		t.Fatalf("result = %+v", res)
	}
	if res.HasFailures() || res.Total() != 1 {
		t.Errorf("summary accessors: failures=%v total=%d", res.HasFailures(), res.Total())
	}

	if renderer.renders != 1 {
		t.Errorf("renders = %d, want 1", renderer.renders)
	}
	if len(assets.folders) != 1 || assets.folders[0] != "Diagram Images" {
		t.Errorf("folders created = %v", assets.folders)
	}
	if len(assets.uploads) != 1 || assets.uploads[0].name != "mermaid_ab12cd34.png" {
		t.Errorf("uploads = %+v", assets.uploads)
	}
	if assets.uploads[0].mimeType != "image/png" {
		t.Errorf("upload mime = %s", assets.uploads[0].mimeType)
	}
	if len(assets.public) != 1 {
		t.Errorf("public grants = %v", assets.public)
	}

	if len(docs.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(docs.batches))
	}
	batch := docs.batches[0]
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want delete+insert", len(batch))
	}

	del := batch[0].DeleteContentRange
	ins := batch[1].InsertInlineImage
	if del == nil || ins == nil {
		t.Fatalf("batch shape wrong: %+v", batch)
	}
	if del.Range.StartIndex != 1 || del.Range.EndIndex != 1+len("[DIAGRAM:mermaid_ab12cd34]") {
		t.Errorf("delete range = %+v", del.Range)
	}
	if ins.Location.Index != del.Range.StartIndex {
		t.Errorf("insert at %d, delete starts at %d", ins.Location.Index, del.Range.StartIndex)
	}
	if !strings.HasPrefix(ins.URI, "https://drive.google.com/uc?export=view&id=") {
		t.Errorf("insert URI = %s", ins.URI)
	}
	if ins.ObjectSize.Width.Magnitude != 500 || ins.ObjectSize.Height.Magnitude != 350 {
		t.Errorf("diagram size = %+v", ins.ObjectSize)
	}
}

func TestEmbedDiagrams_APIModeDirectURL(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_ab12cd34")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{directURL: "https://mermaid.ink/img/abc?type=png"}
	cfg := types.RenderConfig{Mode: types.RenderAPI}

	e := NewEmbedder(docs, assets, renderer, cfg, &bytes.Buffer{})
	res := e.EmbedDiagrams(context.Background(), "doc-1", []types.DiagramRef{diagramRef("mermaid_ab12cd34")}, "parent-1")

	if res.Embedded != 1 {
		t.Fatalf("result = %+v", res)
	}
	if renderer.renders != 0 || len(assets.uploads) != 0 {
		t.Errorf("api mode should not render or upload: renders=%d uploads=%d", renderer.renders, len(assets.uploads))
	}
	if uri := docs.batches[0][1].InsertInlineImage.URI; uri != renderer.directURL {
		t.Errorf("insert URI = %s", uri)
	}
}

func TestEmbedDiagrams_APIModeLongURLFallsBackToUpload(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_ab12cd34")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{
		data:      []byte("png"),
		directURL: "https://mermaid.ink/img/" + strings.Repeat("x", types.DirectURLLimit),
	}
	cfg := types.RenderConfig{Mode: types.RenderAPI}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, renderer, cfg, &buf)
	res := e.EmbedDiagrams(context.Background(), "doc-1", []types.DiagramRef{diagramRef("mermaid_ab12cd34")}, "parent-1")

	if res.Embedded != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(assets.uploads) != 1 {
		t.Errorf("expected upload fallback, uploads = %+v", assets.uploads)
	}
	if !strings.Contains(buf.String(), "too long") {
		t.Errorf("missing fallback notice: %s", buf.String())
	}
}

func TestEmbedDiagrams_HybridFallsBackToDirectURL(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_ab12cd34")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{
		renderErr: errors.New("render service down"),
		directURL: "https://mermaid.ink/img/abc?type=png",
	}
	cfg := types.RenderConfig{Mode: types.RenderHybrid}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, renderer, cfg, &buf)
	res := e.EmbedDiagrams(context.Background(), "doc-1", []types.DiagramRef{diagramRef("mermaid_ab12cd34")}, "parent-1")

	if res.Embedded != 1 {
		t.Fatalf("result = %+v, output: %s", res, buf.String())
	}
	if uri := docs.batches[0][1].InsertInlineImage.URI; uri != renderer.directURL {
		t.Errorf("insert URI = %s", uri)
	}
}

func TestEmbedDiagrams_FailureDoesNotAbort(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_aaaa1111", "mermaid_bbbb2222")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{data: []byte("png")}
	cfg := types.RenderConfig{Mode: types.RenderLocal}

	// First ref fails to render, second succeeds.
	refs := []types.DiagramRef{diagramRef("mermaid_aaaa1111"), diagramRef("mermaid_bbbb2222")}
	renderer.renderErr = errors.New("boom")

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, renderer, cfg, &buf)

	// All renders fail: both refs counted as failed, loop completes.
	res := e.EmbedDiagrams(context.Background(), "doc-1", refs, "parent-1")
	if res.Failed != 2 || res.Embedded != 0 {
		t.Fatalf("result = %+v", res)
	}
	if !res.HasFailures() {
		t.Error("HasFailures() = false")
	}
	if strings.Count(buf.String(), "failed: diagram") != 2 {
		t.Errorf("output: %s", buf.String())
	}
}

func TestEmbedDiagrams_MissingMarkerSkips(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_other")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{data: []byte("png")}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, renderer, types.RenderConfig{Mode: types.RenderLocal}, &buf)
	res := e.EmbedDiagrams(context.Background(), "doc-1", []types.DiagramRef{diagramRef("mermaid_ab12cd34")}, "parent-1")

	if res.Skipped != 1 || res.Embedded != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(docs.batches) != 0 {
		t.Errorf("no batch expected, got %+v", docs.batches)
	}
	if !strings.Contains(buf.String(), "no marker found") {
		t.Errorf("output: %s", buf.String())
	}
}

func TestEmbedDiagrams_PublicGrantFailureIsWarning(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_ab12cd34")}
	assets := &fakeAssets{publicErr: errors.New("inherited permissions")}
	renderer := &fakeRenderer{data: []byte("png")}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, renderer, types.RenderConfig{Mode: types.RenderLocal}, &buf)
	res := e.EmbedDiagrams(context.Background(), "doc-1", []types.DiagramRef{diagramRef("mermaid_ab12cd34")}, "parent-1")

	if res.Embedded != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(buf.String(), "could not make") {
		t.Errorf("output: %s", buf.String())
	}
}

func TestEmbedImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	if err := os.WriteFile(path, []byte("png-data"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs := &fakeDocs{doc: markerDoc("IMAGE", "image_ab12cd34")}
	assets := &fakeAssets{}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, &fakeRenderer{}, types.RenderConfig{}, &buf)
	refs := []types.ImageRef{{Name: "image_ab12cd34", DisplayName: "shot", Path: path}}
	res := e.EmbedImages(context.Background(), "doc-1", refs, "parent-1")

	if res.Embedded != 1 {
		t.Fatalf("result = %+v, output: %s", res, buf.String())
	}
	if len(assets.folders) != 1 || assets.folders[0] != "Embedded Images" {
		t.Errorf("folders = %v", assets.folders)
	}
	if assets.uploads[0].name != "shot.png" || assets.uploads[0].mimeType != "image/png" {
		t.Errorf("upload = %+v", assets.uploads[0])
	}

	ins := docs.batches[0][1].InsertInlineImage
	if ins.ObjectSize.Width.Magnitude != 280 || ins.ObjectSize.Height.Magnitude != 175 {
		t.Errorf("image size = %+v", ins.ObjectSize)
	}
}

func TestEmbedImages_MissingFileSkips(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("IMAGE", "image_ab12cd34")}
	assets := &fakeAssets{}

	var buf bytes.Buffer
	e := NewEmbedder(docs, assets, &fakeRenderer{}, types.RenderConfig{}, &buf)
	refs := []types.ImageRef{{Name: "image_ab12cd34", DisplayName: "gone", Path: "/nope/gone.png"}}
	res := e.EmbedImages(context.Background(), "doc-1", refs, "parent-1")

	if res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(assets.uploads) != 0 || len(docs.batches) != 0 {
		t.Error("missing file must not upload or mutate")
	}
	if !strings.Contains(buf.String(), "image file not found") {
		t.Errorf("output: %s", buf.String())
	}
}

func TestFolderCreatedOnce(t *testing.T) {
	docs := &fakeDocs{doc: markerDoc("DIAGRAM", "mermaid_aaaa1111", "mermaid_bbbb2222")}
	assets := &fakeAssets{}
	renderer := &fakeRenderer{data: []byte("png")}

	e := NewEmbedder(docs, assets, renderer, types.RenderConfig{Mode: types.RenderLocal}, &bytes.Buffer{})
	refs := []types.DiagramRef{diagramRef("mermaid_aaaa1111"), diagramRef("mermaid_bbbb2222")}
	res := e.EmbedDiagrams(context.Background(), "doc-1", refs, "parent-1")

	if res.Embedded != 2 {
		t.Fatalf("result = %+v", res)
	}
	if len(assets.folders) != 1 {
		t.Errorf("folder created %d times, want 1", len(assets.folders))
	}
}
