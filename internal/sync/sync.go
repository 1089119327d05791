// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sync drives the local-directory-to-document-store pipeline:
// folder mirroring, per-file conversion dispatch, asset embedding,
// anchor conversion, and change detection.
package sync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/drive-sync/internal/cache"
	"github.com/pdiddy/drive-sync/internal/embed"
	"github.com/pdiddy/drive-sync/internal/gdoc"
	"github.com/pdiddy/drive-sync/internal/markdown"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// AssetStore is the slice of the asset-store client the syncer needs.
type AssetStore interface {
	UploadFile(ctx context.Context, path, name, folderID string, kind types.FileKind) (string, bool, error)
	GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error)
}

// Embedder embeds extracted assets into a converted document.
type Embedder interface {
	EmbedDiagrams(ctx context.Context, docID string, refs []types.DiagramRef, parentID string) embed.Result
	EmbedImages(ctx context.Context, docID string, refs []types.ImageRef, parentID string) embed.Result
}

// Result summarizes one directory sync.
type Result struct {
	Synced  int
	Skipped int
	Failed  int

	// Files maps local paths to their remote document IDs.
	Files map[string]string
}

// Total returns the number of files processed.
func (r Result) Total() int {
	return r.Synced + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// manifest is the per-run record written next to the cache database.
type manifest struct {
	RunID    string            `yaml:"run_id"`
	FolderID string            `yaml:"folder_id"`
	Finished string            `yaml:"finished"`
	Synced   int               `yaml:"synced"`
	Skipped  int               `yaml:"skipped"`
	Failed   int               `yaml:"failed"`
	Files    map[string]string `yaml:"files"`
}

// Syncer runs the pipeline against one target folder.
type Syncer struct {
	assets   AssetStore
	docs     gdoc.DocumentStore
	embedder Embedder
	cache    *cache.Cache
	cfg      types.SyncConfig
	w        io.Writer

	runID string
}

// NewSyncer returns a Syncer writing progress to w. The cache may be
// nil, disabling change detection.
func NewSyncer(assets AssetStore, docs gdoc.DocumentStore, embedder Embedder, c *cache.Cache, cfg types.SyncConfig, w io.Writer) *Syncer {
	return &Syncer{
		assets:   assets,
		docs:     docs,
		embedder: embedder,
		cache:    c,
		cfg:      cfg,
		w:        w,
		runID:    uuid.NewString(),
	}
}

// RunID identifies this sync run in the cache and manifest.
func (s *Syncer) RunID() string {
	return s.runID
}

// SyncFile converts and uploads one file, returning its remote ID and
// whether an upload actually happened. Unsupported files are skipped
// with "" and no error; unchanged cached files return their recorded
// remote ID without uploading, reported as not synced.
func (s *Syncer) SyncFile(ctx context.Context, path, folderID string) (string, bool, error) {
	kind := types.DetectFileKind(path)
	if kind == types.KindUnsupported {
		fmt.Fprintf(s.w, "skipped: %s (unsupported file type)\n", path)
		return "", false, nil
	}

	if s.cache != nil && s.cfg.UseCache {
		if ok, reason := s.cache.ShouldSync(path); !ok {
			fmt.Fprintf(s.w, "skipped: %s (%s)\n", path, reason)
			id, err := s.cache.RemoteID(path)
			return id, false, err
		} else {
			fmt.Fprintf(s.w, "syncing: %s (%s)\n", path, reason)
		}
	} else {
		fmt.Fprintf(s.w, "syncing: %s\n", path)
	}

	var remoteID string
	var err error
	switch kind {
	case types.KindMarkdown:
		remoteID, err = s.syncMarkdown(ctx, path, folderID)
	case types.KindCSV:
		remoteID, err = s.syncConverted(ctx, path, folderID, kind)
	case types.KindPDF:
		remoteID, err = s.syncConverted(ctx, path, folderID, kind)
	case types.KindUnsupported:
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if s.cache != nil && s.cfg.UseCache {
		if err := s.cache.Update(path, remoteID, s.runID); err != nil {
			fmt.Fprintf(s.w, "warning: cache update failed for %s: %v\n", path, err)
		}
	}
	return remoteID, true, nil
}

// syncConverted uploads a file whose whole content converts in the
// store (spreadsheets) or passes through (PDFs).
func (s *Syncer) syncConverted(ctx context.Context, path, folderID string, kind types.FileKind) (string, error) {
	name := filepath.Base(path)
	if kind == types.KindCSV {
		name = name[:len(name)-len(filepath.Ext(name))]
	}

	remoteID, created, err := s.assets.UploadFile(ctx, path, name, folderID, kind)
	if err != nil {
		return "", fmt.Errorf("syncing %s: %w", path, err)
	}
	if created {
		fmt.Fprintf(s.w, "created: %s (%s)\n", name, kind)
	} else {
		fmt.Fprintf(s.w, "updated: %s (%s)\n", name, kind)
	}
	return remoteID, nil
}

// syncMarkdown runs the full rich-document pipeline: prepare, upload
// with conversion, embed assets, convert anchor links.
func (s *Syncer) syncMarkdown(ctx context.Context, path, folderID string) (string, error) {
	prep, err := markdown.Prepare(path, markdown.PrepareOptions{
		ExtractDiagrams: s.cfg.EnableDiagrams,
		ExtractImages:   s.cfg.EnableImages,
		FormatCode:      s.cfg.FormatCode,
	})
	if err != nil {
		return "", err
	}

	// The store converts what it receives, so the transformed content
	// goes up through a temporary file.
	tmp, err := os.CreateTemp("", "drive-sync-*.md")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(prep.Content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	docID, created, err := s.assets.UploadFile(ctx, tmp.Name(), prep.Name, folderID, types.KindMarkdown)
	if err != nil {
		return "", fmt.Errorf("syncing %s: %w", path, err)
	}
	if created {
		fmt.Fprintf(s.w, "created: %s (document)\n", prep.Name)
	} else {
		fmt.Fprintf(s.w, "updated: %s (document)\n", prep.Name)
	}

	if s.cfg.EnableDiagrams && len(prep.Diagrams) > 0 {
		fmt.Fprintf(s.w, "embedding %d diagram(s)...\n", len(prep.Diagrams))
		res := s.embedder.EmbedDiagrams(ctx, docID, prep.Diagrams, folderID)
		if res.HasFailures() {
			fmt.Fprintf(s.w, "warning: %d of %d diagram(s) failed\n", res.Failed, res.Total())
		}
	}
	if s.cfg.EnableImages && len(prep.Images) > 0 {
		fmt.Fprintf(s.w, "embedding %d image(s)...\n", len(prep.Images))
		res := s.embedder.EmbedImages(ctx, docID, prep.Images, folderID)
		if res.HasFailures() {
			fmt.Fprintf(s.w, "warning: %d of %d image(s) failed\n", res.Failed, res.Total())
		}
	}

	if s.cfg.EnableAnchorLinks {
		n, err := gdoc.ProcessAnchorLinks(ctx, s.docs, docID, s.w)
		if err != nil {
			fmt.Fprintf(s.w, "warning: anchor conversion failed for %s: %v\n", prep.Name, err)
		} else if n > 0 {
			fmt.Fprintf(s.w, "converted %d anchor link(s)\n", n)
		}
	}

	return docID, nil
}

// excluded reports whether the file name matches any exclude pattern.
func (s *Syncer) excluded(path string) bool {
	for _, pattern := range s.cfg.Exclude {
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// ListFiles lists the syncable files under dir in walk order, plus the
// count of ignored files.
func (s *Syncer) ListFiles(dir string, recursive bool) ([]string, int, error) {
	var files []string
	ignored := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if types.ShouldIgnore(path) {
			ignored++
			return nil
		}
		if s.excluded(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, ignored, nil
}

// mirrorFolders creates the remote folder tree matching dir and returns
// the local-directory-to-folder-ID map. The directory itself becomes a
// folder named after its base under the configured target.
func (s *Syncer) mirrorFolders(ctx context.Context, dir string, recursive bool) (map[string]string, error) {
	folders := map[string]string{}

	rootID, err := s.assets.GetOrCreateFolder(ctx, filepath.Base(dir), s.cfg.FolderID)
	if err != nil {
		return nil, fmt.Errorf("creating root folder: %w", err)
	}
	folders[dir] = rootID

	if !recursive {
		return folders, nil
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == dir {
			return nil
		}
		parentID, ok := folders[filepath.Dir(path)]
		if !ok {
			parentID = rootID
		}
		id, err := s.assets.GetOrCreateFolder(ctx, d.Name(), parentID)
		if err != nil {
			return fmt.Errorf("creating folder %s: %w", d.Name(), err)
		}
		folders[path] = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// SyncDirectory mirrors dir into the target folder and syncs every
// supported file, continuing past per-file failures.
func (s *Syncer) SyncDirectory(ctx context.Context, dir string, recursive bool) (Result, error) {
	res := Result{Files: map[string]string{}}

	folders, err := s.mirrorFolders(ctx, dir, recursive)
	if err != nil {
		return res, err
	}

	files, ignored, err := s.ListFiles(dir, recursive)
	if err != nil {
		return res, err
	}
	if ignored > 0 {
		fmt.Fprintf(s.w, "ignoring %d file(s)\n", ignored)
	}
	fmt.Fprintf(s.w, "found %d file(s) to process\n", len(files))

	for i, path := range files {
		folderID, ok := folders[filepath.Dir(path)]
		if !ok {
			folderID = folders[dir]
		}

		fmt.Fprintf(s.w, "[%d/%d] ", i+1, len(files))
		remoteID, synced, err := s.SyncFile(ctx, path, folderID)
		switch {
		case err != nil:
			fmt.Fprintf(s.w, "failed: %s: %v\n", path, err)
			res.Failed++
		case !synced:
			res.Skipped++
		default:
			res.Files[path] = remoteID
			res.Synced++
		}

		if s.cfg.BatchSize > 0 && (i+1)%s.cfg.BatchSize == 0 {
			fmt.Fprintf(s.w, "progress saved (%d/%d)\n", i+1, len(files))
		}
	}

	if err := s.writeManifest(res); err != nil {
		fmt.Fprintf(s.w, "warning: could not write manifest: %v\n", err)
	}

	fmt.Fprintf(s.w, "sync complete: %d synced, %d skipped, %d failed\n",
		res.Synced, res.Skipped, res.Failed)
	return res, nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// writeManifest records the run outcome next to the cache database.
func (s *Syncer) writeManifest(res Result) error {
	if s.cfg.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.CacheDir, 0o755); err != nil {
		return err
	}

	m := manifest{
		RunID:    s.runID,
		FolderID: s.cfg.FolderID,
		Finished: nowRFC3339(),
		Synced:   res.Synced,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
		Files:    res.Files,
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.cfg.CacheDir, "manifest.yaml"), data, 0o644)
}
