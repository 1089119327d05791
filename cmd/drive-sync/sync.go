// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/drive-sync/internal/cache"
	"github.com/pdiddy/drive-sync/internal/drive"
	"github.com/pdiddy/drive-sync/internal/embed"
	"github.com/pdiddy/drive-sync/internal/gdoc"
	"github.com/pdiddy/drive-sync/internal/httputil"
	"github.com/pdiddy/drive-sync/internal/mermaid"
	"github.com/pdiddy/drive-sync/internal/sync"
	"github.com/pdiddy/drive-sync/pkg/types"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Sync a directory or file to the target Drive folder",
	Long: `Sync mirrors a local directory into the target Drive folder. Markdown
becomes Google Docs with diagrams, images, and anchor links processed; CSV
becomes Sheets; PDFs upload unchanged. Unchanged files are skipped via the
sync cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("folder-id", "", "target Drive folder ID (default: .secrets/drive-folder-id)")
	syncCmd.Flags().Bool("recursive", true, "descend into subdirectories")
	syncCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
	syncCmd.Flags().Bool("no-cache", false, "sync every file regardless of the cache")
	syncCmd.Flags().String("render-mode", "", "diagram render mode: local, api, or hybrid (default local)")
	syncCmd.Flags().Bool("no-diagrams", false, "skip mermaid extraction and embedding")
	syncCmd.Flags().Bool("no-images", false, "skip local image extraction and embedding")
	syncCmd.Flags().Bool("no-anchor-links", false, "skip heading anchor link conversion")
	syncCmd.Flags().Duration("rate-limit", 0, "minimum gap between API calls (default 500ms)")
	syncCmd.Flags().Int("batch-size", 0, "files between progress saves (default 10)")
	syncCmd.Flags().Bool("dry-run", false, "list what would sync without uploading")

	rootCmd.AddCommand(syncCmd)
}

// syncConfig assembles the effective configuration from defaults,
// config file, and flags.
func syncConfig(cmd *cobra.Command) (types.SyncConfig, types.RenderConfig, error) {
	cfg := types.DefaultSyncConfig()

	if v := viper.GetString("sync.cache_dir"); v != "" {
		cfg.CacheDir = v
	}
	if v := viper.GetDuration("sync.rate_limit_delay"); v > 0 {
		cfg.RateLimitDelay = v
	}

	folderID, _ := cmd.Flags().GetString("folder-id")
	cfg.FolderID = secretDefault("drive-folder-id", folderID)
	if cfg.FolderID == "" {
		cfg.FolderID = viper.GetString("sync.folder_id")
	}
	if cfg.FolderID == "" {
		return cfg, types.RenderConfig{}, fmt.Errorf("no target folder: use --folder-id, .secrets/drive-folder-id, or the config file")
	}

	if v, _ := cmd.Flags().GetStringSlice("exclude"); len(v) > 0 {
		cfg.Exclude = v
	}
	if v, _ := cmd.Flags().GetBool("no-cache"); v {
		cfg.UseCache = false
	}
	if v, _ := cmd.Flags().GetBool("no-diagrams"); v {
		cfg.EnableDiagrams = false
	}
	if v, _ := cmd.Flags().GetBool("no-images"); v {
		cfg.EnableImages = false
	}
	if v, _ := cmd.Flags().GetBool("no-anchor-links"); v {
		cfg.EnableAnchorLinks = false
	}
	if v, _ := cmd.Flags().GetDuration("rate-limit"); v > 0 {
		cfg.RateLimitDelay = v
	}
	if v, _ := cmd.Flags().GetInt("batch-size"); v > 0 {
		cfg.BatchSize = v
	}

	render := types.DefaultRenderConfig()
	if v := viper.GetString("render.mode"); v != "" {
		render.Mode = types.RenderMode(v)
	}
	if v, _ := cmd.Flags().GetString("render-mode"); v != "" {
		render.Mode = types.RenderMode(v)
	}
	switch render.Mode {
	case types.RenderLocal, types.RenderAPI, types.RenderHybrid:
	default:
		return cfg, render, fmt.Errorf("unknown render mode %q (want local, api, or hybrid)", render.Mode)
	}

	return cfg, render, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	cfg, render, err := syncConfig(cmd)
	if err != nil {
		return err
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if dryRun {
		return dryRunSync(path, info.IsDir(), recursive, cfg)
	}

	client, err := apiClient(cfg.Timeout)
	if err != nil {
		return err
	}
	limiter := httputil.NewLimiter(cfg.RateLimitDelay)

	assets := &drive.Client{HTTP: client, Limiter: limiter}
	docs := &gdoc.Client{HTTP: client, Limiter: limiter}

	ctx := context.Background()

	// The render service needs no authorization.
	renderer := mermaid.NewRenderer(&http.Client{Timeout: render.Timeout}, render)
	if cfg.EnableDiagrams {
		if err := renderer.Ping(ctx); err != nil {
			return err
		}
	}
	embedder := embed.NewEmbedder(docs, assets, renderer, render, os.Stdout)

	var c *cache.Cache
	if cfg.UseCache {
		c, err = cache.Open(cfg.CacheDir, cfg.FolderID)
		if err != nil {
			return err
		}
		defer c.Close()
	}

	syncer := sync.NewSyncer(assets, docs, embedder, c, cfg, os.Stdout)

	if !info.IsDir() {
		_, _, err := syncer.SyncFile(ctx, path, cfg.FolderID)
		return err
	}

	res, err := syncer.SyncDirectory(ctx, path, recursive)
	if err != nil {
		return err
	}
	if res.HasFailures() {
		return fmt.Errorf("%d file(s) failed to sync", res.Failed)
	}
	return nil
}

// dryRunSync lists what a real run would upload.
func dryRunSync(path string, isDir, recursive bool, cfg types.SyncConfig) error {
	if !isDir {
		kind := types.DetectFileKind(path)
		fmt.Printf("would sync: %s (%s)\n", path, kind)
		return nil
	}

	syncer := sync.NewSyncer(nil, nil, nil, nil, cfg, os.Stdout)
	files, ignored, err := syncer.ListFiles(path, recursive)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("would sync: %s (%s)\n", f, types.DetectFileKind(f))
	}
	fmt.Printf("%d file(s) to sync, %d ignored\n", len(files), ignored)
	return nil
}
