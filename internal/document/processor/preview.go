package processor

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/yuin/goldmark"
)

// Previewer builds a UI-previewable HTML representation of a version.
type Previewer struct {
	store storage.Gateway
	md    goldmark.Markdown
}

// NewPreviewer creates the preview processor.
func NewPreviewer(store storage.Gateway) *Previewer {
	return &Previewer{
		store: store,
		md:    goldmark.New(),
	}
}

// Run writes the preview document to its deterministic key.
func (p *Previewer) Run(ctx context.Context, doc *models.Document, version *models.DocumentVersion) error {
	var out bytes.Buffer

	switch doctypes.DocType(doc.DocType) {
	case doctypes.DocTypeMarkdown:
		body, err := p.store.Get(ctx, version.StorageKey)
		if err != nil {
			return fmt.Errorf("failed to read canonical object: %w", err)
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return fmt.Errorf("failed to read canonical object: %w", err)
		}
		if err := p.md.Convert(data, &out); err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}

	case doctypes.DocTypeText, doctypes.DocTypeJSON:
		body, err := p.store.Get(ctx, version.StorageKey)
		if err != nil {
			return fmt.Errorf("failed to read canonical object: %w", err)
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return fmt.Errorf("failed to read canonical object: %w", err)
		}
		fmt.Fprintf(&out, "<pre>%s</pre>", html.EscapeString(string(data)))

	case doctypes.DocTypePDF, doctypes.DocTypeImage:
		// The browser renders these natively; the preview document just
		// points the UI at the canonical object.
		fmt.Fprintf(&out, `<object data=%q type=%q></object>`, version.StorageKey, version.MimeType)

	default:
		fmt.Fprintf(&out, "<p>No preview available for %s.</p>", html.EscapeString(doc.DocType))
	}

	key := storage.PreviewKey(doc.TenantID, doc.ID, version.ID)
	if err := p.store.Put(ctx, key, &out, int64(out.Len()), "text/html; charset=utf-8"); err != nil {
		return fmt.Errorf("failed to store preview: %w", err)
	}

	return nil
}
