// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/drive-sync/pkg/types"
)

// Markers use the [KIND:name] text form so they survive the store's
// Markdown conversion and can be located afterwards with a plain
// regular expression. Names must match \w+ or resolution would bleed
// across adjacent markers.
var (
	mermaidFenceRe = regexp.MustCompile("(?s)```mermaid\n(.*?)```")
	markdownImgRe  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	inlineImgRe    = regexp.MustCompile("(?i)`([^`]+\\.(?:png|jpg|jpeg|gif|webp))`")
)

// shortHash returns the first 8 hex characters of the md5 digest of s,
// the stable identity scheme markers are named by.
func shortHash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))[:8]
}

// ExtractDiagrams locates every ```mermaid fenced block, records a
// DiagramRef per block, and replaces the whole fence with a
// [DIAGRAM:name] marker line. Identical blocks hash to the same name.
// Non-mermaid fences are left untouched.
func ExtractDiagrams(content string) (string, []types.DiagramRef) {
	var diagrams []types.DiagramRef

	modified := mermaidFenceRe.ReplaceAllStringFunc(content, func(block string) string {
		code := strings.TrimSpace(mermaidFenceRe.FindStringSubmatch(block)[1])
		hash := shortHash(code)
		name := "mermaid_" + hash

		diagrams = append(diagrams, types.DiagramRef{
			Name: name,
			Code: code,
			Hash: hash,
		})
		return fmt.Sprintf("\n[DIAGRAM:%s]\n", name)
	})

	return modified, diagrams
}

// imageExts are the extensions recognized as embeddable images.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

func isImagePath(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// ExtractImages locates local image references in two passes and
// replaces each with an [IMAGE:name] marker.
//
// Pass one matches standard ![alt](path) syntax: network URLs are
// skipped, relative paths resolve against the source file's directory,
// and only existing files with a recognized image extension are
// extracted; anything else is left verbatim rather than erroring.
//
// Pass two matches inline-code spans naming an image file and searches
// a fixed list of conventional directories for the first existing
// match.
//
// Both passes share one accumulated list: references resolving to the
// same absolute path reuse the existing ref's name, so one asset is
// recorded per unique path per call even when the text carries several
// markers for it.
func ExtractImages(content, sourceFile string) (string, []types.ImageRef) {
	var images []types.ImageRef
	sourceDir := filepath.Dir(sourceFile)

	existingName := func(path string) (string, bool) {
		for _, img := range images {
			if img.Path == path {
				return img.Name, true
			}
		}
		return "", false
	}

	record := func(path, alt string) string {
		if name, ok := existingName(path); ok {
			return name
		}
		name := "image_" + shortHash(path)
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		images = append(images, types.ImageRef{
			Name:        name,
			DisplayName: stem,
			Path:        path,
			Alt:         alt,
		})
		return name
	}

	modified := markdownImgRe.ReplaceAllStringFunc(content, func(match string) string {
		groups := markdownImgRe.FindStringSubmatch(match)
		alt, imagePath := groups[1], groups[2]

		if strings.HasPrefix(imagePath, "http://") ||
			strings.HasPrefix(imagePath, "https://") ||
			strings.HasPrefix(imagePath, "//") {
			return match
		}

		fullPath := resolvePath(sourceDir, imagePath)
		if !fileExists(fullPath) || !isImagePath(fullPath) {
			return match
		}

		name := record(fullPath, alt)
		return fmt.Sprintf("\n[IMAGE:%s]\n", name)
	})

	modified = inlineImgRe.ReplaceAllStringFunc(modified, func(match string) string {
		filename := strings.TrimSpace(inlineImgRe.FindStringSubmatch(match)[1])

		// Conventional locations, nearest first. First hit wins.
		parentDir := filepath.Dir(sourceDir)
		searchPaths := []string{
			filepath.Join(sourceDir, filename),
			filepath.Join(sourceDir, "screenshots", filename),
			filepath.Join(sourceDir, "images", filename),
			filepath.Join(parentDir, "screenshots", filename),
			filepath.Join(parentDir, "images", filename),
			filepath.Join(parentDir, "scope", "screenshots", filename),
		}

		for _, candidate := range searchPaths {
			fullPath := resolvePath("", candidate)
			if !fileExists(fullPath) {
				continue
			}
			name := record(fullPath, filename)
			return fmt.Sprintf("[IMAGE:%s]", name)
		}

		// Image not found anywhere; leave the reference as written.
		return match
	})

	return modified, images
}

// resolvePath joins rel onto dir and normalizes to an absolute path so
// that different spellings of one file collapse to one identity.
func resolvePath(dir, rel string) string {
	p := rel
	if dir != "" && !filepath.IsAbs(rel) {
		p = filepath.Join(dir, rel)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
