// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/drive-sync/internal/cache"
	"github.com/pdiddy/drive-sync/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the sync cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sync cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the sync cache, forcing a full re-sync",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.PersistentFlags().String("folder-id", "", "target Drive folder ID (default: .secrets/drive-folder-id)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache(cmd *cobra.Command) (*cache.Cache, error) {
	flagID, _ := cmd.Flags().GetString("folder-id")
	folderID := secretDefault("drive-folder-id", flagID)
	if folderID == "" {
		folderID = viper.GetString("sync.folder_id")
	}

	cacheDir := viper.GetString("sync.cache_dir")
	if cacheDir == "" {
		cacheDir = types.DefaultSyncConfig().CacheDir
	}

	return cache.Open(cacheDir, folderID)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("cache: %s\n", c.Path())
	fmt.Printf("entries: %d\n", stats.Entries)
	if stats.LastRun != "" {
		fmt.Printf("last run: %s\n", stats.LastRun)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}
