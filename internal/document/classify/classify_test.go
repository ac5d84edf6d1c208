package classify

import (
	"testing"

	"github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mimeType string
		want     types.DocType
	}{
		{"pdf by extension", "report.pdf", "", types.DocTypePDF},
		{"docx by extension", "letter.docx", "", types.DocTypeWord},
		{"markdown by extension", "README.md", "", types.DocTypeMarkdown},
		{"json by extension", "data.json", "", types.DocTypeJSON},
		{"image by extension", "photo.JPG", "", types.DocTypeImage},
		{"extension wins over mime", "notes.md", "application/pdf", types.DocTypeMarkdown},
		{"mime fallback", "download", "application/pdf", types.DocTypePDF},
		{"mime with parameters", "download", "text/plain; charset=utf-8", types.DocTypeText},
		{"mime case insensitive", "download", "IMAGE/PNG", types.DocTypeImage},
		{"unknown everything", "blob.bin", "application/octet-stream", types.DocTypeOther},
		{"no hints at all", "blob", "", types.DocTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.filename, tt.mimeType); got != tt.want {
				t.Errorf("Detect(%q, %q) = %s, want %s", tt.filename, tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"strips extension", "quarterly-report.pdf", "quarterly-report"},
		{"keeps inner dots", "release.notes.v2.md", "release.notes.v2"},
		{"no extension", "README", "README"},
		{"strips directories", "inbox/2024/summary.txt", "summary"},
		{"dotfile falls back to input", ".gitignore", ".gitignore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromFilename(tt.filename); got != tt.want {
				t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
