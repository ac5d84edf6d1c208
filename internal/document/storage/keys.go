package storage

import (
	"fmt"
	"path"

	"github.com/google/uuid"
)

// Object key layout. Quarantine keys are tied to the upload session;
// canonical keys are tied to (tenant, document, version) identity and
// deliberately contain no content digest, so a re-uploaded byte-for-byte
// duplicate still gets its own object.

// QuarantineKey builds the holding-area key for an upload session.
func QuarantineKey(tenantID, uploadID uuid.UUID, filename string) string {
	return path.Join("quarantine", tenantID.String(), uploadID.String(), path.Base(filename))
}

// CanonicalKey builds the permanent key for a document version.
func CanonicalKey(tenantID, documentID, versionID uuid.UUID) string {
	return path.Join("documents", tenantID.String(), documentID.String(), versionID.String())
}

// ThumbnailKey builds the key for one rendered page thumbnail.
func ThumbnailKey(tenantID, documentID, versionID uuid.UUID, page int) string {
	return path.Join("derived", tenantID.String(), documentID.String(), versionID.String(),
		fmt.Sprintf("thumb-%04d.png", page))
}

// PreviewKey builds the key for the rendered HTML preview.
func PreviewKey(tenantID, documentID, versionID uuid.UUID) string {
	return path.Join("derived", tenantID.String(), documentID.String(), versionID.String(), "preview.html")
}
