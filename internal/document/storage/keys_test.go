package storage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestKeyLayout(t *testing.T) {
	tenantID := uuid.New()
	documentID := uuid.New()
	versionID := uuid.New()
	uploadID := uuid.New()

	t.Run("quarantine keys are session scoped", func(t *testing.T) {
		key := QuarantineKey(tenantID, uploadID, "report.pdf")
		want := fmt.Sprintf("quarantine/%s/%s/report.pdf", tenantID, uploadID)
		if key != want {
			t.Errorf("key = %s, want %s", key, want)
		}
	})

	t.Run("quarantine keys strip client paths", func(t *testing.T) {
		key := QuarantineKey(tenantID, uploadID, "../../etc/passwd")
		if strings.Contains(key, "..") {
			t.Errorf("key %s must not contain path traversal", key)
		}
		if !strings.HasSuffix(key, "/passwd") {
			t.Errorf("key %s should end with the base name", key)
		}
	})

	t.Run("canonical keys carry identity, not content", func(t *testing.T) {
		key := CanonicalKey(tenantID, documentID, versionID)
		want := fmt.Sprintf("documents/%s/%s/%s", tenantID, documentID, versionID)
		if key != want {
			t.Errorf("key = %s, want %s", key, want)
		}
	})

	t.Run("thumbnail pages are zero padded", func(t *testing.T) {
		key := ThumbnailKey(tenantID, documentID, versionID, 3)
		if !strings.HasSuffix(key, "/thumb-0003.png") {
			t.Errorf("key = %s, want thumb-0003.png suffix", key)
		}
		if !strings.HasPrefix(key, "derived/") {
			t.Errorf("key = %s, want derived/ prefix", key)
		}
	})

	t.Run("preview key", func(t *testing.T) {
		key := PreviewKey(tenantID, documentID, versionID)
		want := fmt.Sprintf("derived/%s/%s/%s/preview.html", tenantID, documentID, versionID)
		if key != want {
			t.Errorf("key = %s, want %s", key, want)
		}
	})
}
