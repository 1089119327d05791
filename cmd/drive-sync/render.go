// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/drive-sync/internal/markdown"
	"github.com/pdiddy/drive-sync/internal/mermaid"
	"github.com/pdiddy/drive-sync/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a mermaid diagram file to an image",
	Long: `Render reads mermaid source (a .mmd file, or a Markdown file whose
first mermaid fence is used) and renders it to PNG via the rendering service.
With --url-only it prints the direct render URL instead of fetching.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("out", "", "output file (default: source name with .png)")
	renderCmd.Flags().Bool("url-only", false, "print the direct render URL without fetching")
	renderCmd.Flags().String("theme", "", "diagram theme (default, dark, forest, neutral)")
	renderCmd.Flags().String("background", "", "background color")

	rootCmd.AddCommand(renderCmd)
}

// diagramSource extracts the mermaid code from a file: raw for .mmd,
// first fenced block for Markdown.
func diagramSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)

	if strings.HasSuffix(strings.ToLower(path), ".mmd") {
		return strings.TrimSpace(content), nil
	}

	_, diagrams := markdown.ExtractDiagrams(content)
	if len(diagrams) == 0 {
		return "", fmt.Errorf("no mermaid block in %s", path)
	}
	return diagrams[0].Code, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	code, err := diagramSource(args[0])
	if err != nil {
		return err
	}

	cfg := types.DefaultRenderConfig()
	if v, _ := cmd.Flags().GetString("theme"); v != "" {
		cfg.Theme = v
	}
	if v, _ := cmd.Flags().GetString("background"); v != "" {
		cfg.Background = v
	}

	renderer := mermaid.NewRenderer(&http.Client{Timeout: 30 * time.Second}, cfg)

	if urlOnly, _ := cmd.Flags().GetBool("url-only"); urlOnly {
		fmt.Println(renderer.DirectURL(code))
		return nil
	}

	data, err := renderer.Render(context.Background(), code)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		base := args[0]
		if i := strings.LastIndex(base, "."); i > 0 {
			base = base[:i]
		}
		out = base + ".png"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("rendered %s (%d bytes)\n", out, len(data))
	return nil
}
