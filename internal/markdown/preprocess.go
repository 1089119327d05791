// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```(\\w+)?\n(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
)

// FormatCodeBlocks rewrites fenced code blocks and inline code into
// forms that stay readable after rich-document conversion: fences
// become framed, indented blocks and inline code becomes ⟨ bracketed ⟩
// text. Mermaid fences pass through untouched in both passes: they
// belong to the diagram extractor, which depends on the backtick
// syntax surviving when formatting runs with extraction disabled.
func FormatCodeBlocks(content string) string {
	content = codeFenceRe.ReplaceAllStringFunc(content, func(block string) string {
		groups := codeFenceRe.FindStringSubmatch(block)
		language, code := groups[1], groups[2]

		if strings.EqualFold(language, "mermaid") {
			return block
		}

		header := "═══ CODE ═══"
		if language != "" {
			header = "═══ CODE (" + strings.ToUpper(language) + ") ═══"
		}
		footer := strings.Repeat("═", len([]rune(header)))

		lines := strings.Split(code, "\n")
		for i, line := range lines {
			lines[i] = "    " + line
		}

		return "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer + "\n"
	})

	// The only fences left carry mermaid source; the inline pass must
	// not consume their backticks.
	var b strings.Builder
	last := 0
	for _, span := range mermaidFenceRe.FindAllStringIndex(content, -1) {
		b.WriteString(inlineCodeRe.ReplaceAllString(content[last:span[0]], "⟨ $1 ⟩"))
		b.WriteString(content[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(inlineCodeRe.ReplaceAllString(content[last:], "⟨ $1 ⟩"))
	return b.String()
}
