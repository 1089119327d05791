// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

// FileKind is the closed set of file types the sync pipeline handles.
// Adding a kind requires updating every switch over FileKind; there is
// deliberately no open converter registry.
type FileKind int

const (
	// KindUnsupported marks files the pipeline skips.
	KindUnsupported FileKind = iota
	// KindMarkdown converts to a rich document with asset embedding.
	KindMarkdown
	// KindCSV converts to a spreadsheet.
	KindCSV
	// KindPDF uploads unchanged.
	KindPDF
)

// String returns the kind name for log output.
func (k FileKind) String() string {
	switch k {
	case KindMarkdown:
		return "markdown"
	case KindCSV:
		return "csv"
	case KindPDF:
		return "pdf"
	default:
		return "unsupported"
	}
}

// DetectFileKind classifies a path by extension.
func DetectFileKind(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return KindMarkdown
	case ".csv":
		return KindCSV
	case ".pdf":
		return KindPDF
	default:
		return KindUnsupported
	}
}

// SourceMIME returns the MIME type of the local file as uploaded.
func (k FileKind) SourceMIME() string {
	switch k {
	case KindMarkdown:
		return "text/markdown"
	case KindCSV:
		return "text/csv"
	case KindPDF:
		return "application/pdf"
	default:
		return ""
	}
}

// TargetMIME returns the store-side type the upload converts into.
// PDFs pass through without conversion.
func (k FileKind) TargetMIME() string {
	switch k {
	case KindMarkdown:
		return "application/vnd.google-apps.document"
	case KindCSV:
		return "application/vnd.google-apps.spreadsheet"
	case KindPDF:
		return "application/pdf"
	default:
		return ""
	}
}

// ignoredExts lists media, archive, and build-artifact extensions the
// directory walk never uploads.
var ignoredExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".mp3": true, ".wav": true, ".flac": true,
	".zip": true, ".gz": true, ".tar": true, ".rar": true, ".7z": true,
	".pyc": true, ".class": true, ".o": true,
}

// ShouldIgnore reports whether the directory walk skips the file
// outright: dotfiles (.gitkeep, .DS_Store) and media, archive, or
// compiled artifacts.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return ignoredExts[strings.ToLower(filepath.Ext(path))]
}

// ImageMIME maps an image file extension to its MIME type, defaulting
// to PNG for unknown extensions.
func ImageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
