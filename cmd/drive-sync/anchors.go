// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/drive-sync/internal/gdoc"
	"github.com/pdiddy/drive-sync/internal/httputil"
)

var anchorsCmd = &cobra.Command{
	Use:   "anchors [doc-id]",
	Short: "Convert anchor links in an existing document",
	Long: `Anchors fetches a synced document, indexes its headings, and rewrites
same-document #slug links to native heading links. Useful for documents synced
before anchor conversion existed, or after manual edits.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnchors,
}

func init() {
	anchorsCmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout")
	anchorsCmd.Flags().Duration("rate-limit", 500*time.Millisecond, "minimum gap between API calls")

	rootCmd.AddCommand(anchorsCmd)
}

func runAnchors(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	rateLimit, _ := cmd.Flags().GetDuration("rate-limit")

	client, err := apiClient(timeout)
	if err != nil {
		return err
	}
	docs := &gdoc.Client{HTTP: client, Limiter: httputil.NewLimiter(rateLimit)}

	n, err := gdoc.ProcessAnchorLinks(context.Background(), docs, args[0], os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("converted %d anchor link(s)\n", n)
	return nil
}
