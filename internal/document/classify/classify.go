// Package classify maps upload metadata to a document type.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

var extTypes = map[string]types.DocType{
	".pdf":      types.DocTypePDF,
	".doc":      types.DocTypeWord,
	".docx":     types.DocTypeWord,
	".txt":      types.DocTypeText,
	".log":      types.DocTypeText,
	".md":       types.DocTypeMarkdown,
	".markdown": types.DocTypeMarkdown,
	".json":     types.DocTypeJSON,
	".png":      types.DocTypeImage,
	".jpg":      types.DocTypeImage,
	".jpeg":     types.DocTypeImage,
	".gif":      types.DocTypeImage,
	".webp":     types.DocTypeImage,
}

var mimeTypes = map[string]types.DocType{
	"application/pdf":    types.DocTypePDF,
	"application/msword": types.DocTypeWord,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": types.DocTypeWord,
	"text/plain":       types.DocTypeText,
	"text/markdown":    types.DocTypeMarkdown,
	"application/json": types.DocTypeJSON,
	"image/png":        types.DocTypeImage,
	"image/jpeg":       types.DocTypeImage,
	"image/gif":        types.DocTypeImage,
	"image/webp":       types.DocTypeImage,
}

// Detect classifies by file extension first and falls back to the MIME
// type; anything unrecognized is DocTypeOther.
func Detect(filename, mimeType string) types.DocType {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extTypes[ext]; ok {
		return t
	}

	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if t, ok := mimeTypes[mime]; ok {
		return t
	}

	return types.DocTypeOther
}

// TitleFromFilename strips the extension to produce a default title.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return filename
	}
	return base
}
