// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown prepares Markdown source files for upload: heading
// anchor slugs, mermaid and image marker extraction, and code-block
// readability formatting.
package markdown

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts heading text to an editor-compatible anchor slug.
//
// Matches the CommonMark-style anchors markdown editors generate:
// diacritics normalize to their base ASCII letter, all other non-ASCII
// runes are dropped, spaces become hyphens, and everything outside
// [a-z0-9-] is deleted. Consecutive hyphens are deliberately NOT
// collapsed: "Timeline & Rollout Strategy" keeps the double hyphen
// left by the deleted ampersand, yielding "timeline--rollout-strategy".
func Slugify(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// NFKD decomposition splits accented letters into base letter plus
	// combining marks; dropping the marks and any remaining non-ASCII
	// rune mirrors an ASCII-ignore transcode.
	var b strings.Builder
	for _, r := range norm.NFKD.String(text) {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}

	slug := strings.ToLower(b.String())
	slug = strings.ReplaceAll(slug, " ", "-")

	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)

	return strings.Trim(slug, "-")
}

// UniqueSlug disambiguates duplicate heading slugs in document order.
// The first occurrence of base returns base unchanged; each later
// occurrence returns "base-1", "base-2", and so on. seen is owned by a
// single document pass and is mutated in place.
func UniqueSlug(base string, seen map[string]int) string {
	if _, ok := seen[base]; !ok {
		seen[base] = 0
		return base
	}
	seen[base]++
	return fmt.Sprintf("%s-%d", base, seen[base])
}
