package processor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"

	"github.com/gen2brain/go-fitz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

// maxThumbnailPages caps how many pages are rendered per version.
const maxThumbnailPages = 5

// Thumbnailer renders page images to deterministic storage keys.
type Thumbnailer struct {
	store storage.Gateway
}

// NewThumbnailer creates the thumbnail processor.
func NewThumbnailer(store storage.Gateway) *Thumbnailer {
	return &Thumbnailer{store: store}
}

// Run renders thumbnails for one version and returns the page count.
// Re-running overwrites the same keys, so retries are idempotent.
func (p *Thumbnailer) Run(ctx context.Context, doc *models.Document, version *models.DocumentVersion) (int, error) {
	body, err := p.store.Get(ctx, version.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read canonical object: %w", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to read canonical object: %w", err)
	}

	switch doctypes.DocType(doc.DocType) {
	case doctypes.DocTypePDF:
		return p.renderPDF(ctx, doc, version, data)
	case doctypes.DocTypeImage:
		// The image is its own thumbnail.
		key := storage.ThumbnailKey(doc.TenantID, doc.ID, version.ID, 1)
		if err := p.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), version.MimeType); err != nil {
			return 0, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		return 1, nil
	default:
		return 0, nil
	}
}

func (p *Thumbnailer) renderPDF(ctx context.Context, doc *models.Document, version *models.DocumentVersion, data []byte) (int, error) {
	pdf, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer pdf.Close()

	pages := pdf.NumPage()
	render := pages
	if render > maxThumbnailPages {
		render = maxThumbnailPages
	}

	for i := 0; i < render; i++ {
		img, err := pdf.Image(i)
		if err != nil {
			return 0, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return 0, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		key := storage.ThumbnailKey(doc.TenantID, doc.ID, version.ID, i+1)
		if err := p.store.Put(ctx, key, &buf, int64(buf.Len()), "image/png"); err != nil {
			return 0, fmt.Errorf("failed to store thumbnail %d: %w", i+1, err)
		}
	}

	return pages, nil
}
