package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/document/hashing"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditFixture() (*AuditUseCase, *memState, *fakeGateway) {
	state := newMemState()
	store := newFakeGateway()
	uc := NewAuditUseCase(
		&fakeVersionRepo{s: state},
		store,
		conf.AuditConfig{SampleSize: 10, Workers: 2},
		conf.MailConfig{},
		testLogger(),
	)
	return uc, state, store
}

// seedStoredVersion writes body to the store and records a version row
// whose digest is recordedSHA (pass "" to record the true digest).
func seedStoredVersion(state *memState, store *fakeGateway, body []byte, recordedSHA string) *models.DocumentVersion {
	if recordedSHA == "" {
		recordedSHA = hashing.SumBytes(body)
	}
	v := &models.DocumentVersion{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		VersionNo:  1,
		StorageKey: "documents/audit/" + uuid.NewString(),
		MimeType:   "text/plain",
		SizeBytes:  int64(len(body)),
		SHA256:     recordedSHA,
	}
	state.versions[v.ID] = v
	store.put(v.StorageKey, body)
	return v
}

func TestAuditUseCase_RunHashAudit(t *testing.T) {
	ctx := context.Background()

	t.Run("intact content all matches", func(t *testing.T) {
		uc, state, store := newAuditFixture()
		for i := 0; i < 5; i++ {
			seedStoredVersion(state, store, []byte{byte(i), 1, 2, 3}, "")
		}

		report, err := uc.RunHashAudit(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, 5, report.Sampled)
		assert.Equal(t, 5, report.Checked)
		assert.Equal(t, 5, report.Matched)
		// Empty, not nil, so a clean report serializes as [].
		require.NotNil(t, report.Mismatched)
		require.NotNil(t, report.Errors)
		assert.Empty(t, report.Mismatched)
		assert.Empty(t, report.Errors)
	})

	t.Run("corrupted content is reported", func(t *testing.T) {
		uc, state, store := newAuditFixture()
		seedStoredVersion(state, store, []byte("healthy"), "")
		bad := seedStoredVersion(state, store, []byte("rotten"), hashing.SumBytes([]byte("as written")))

		report, err := uc.RunHashAudit(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Checked)
		assert.Equal(t, 1, report.Matched)
		require.Len(t, report.Mismatched, 1)

		m := report.Mismatched[0]
		assert.Equal(t, bad.ID, m.VersionID)
		assert.Equal(t, bad.StorageKey, m.StorageKey)
		assert.Equal(t, bad.SHA256, m.Expected)
		assert.Equal(t, hashing.SumBytes([]byte("rotten")), m.Actual)
	})

	t.Run("unreadable object is an item error, not a mismatch", func(t *testing.T) {
		uc, state, store := newAuditFixture()
		seedStoredVersion(state, store, []byte("fine"), "")
		broken := seedStoredVersion(state, store, []byte("unreachable"), "")
		store.failGet[broken.StorageKey] = errors.New("connection reset")

		report, err := uc.RunHashAudit(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Sampled)
		assert.Equal(t, 1, report.Checked)
		assert.Equal(t, 1, report.Matched)
		assert.Empty(t, report.Mismatched)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, broken.ID, report.Errors[0].VersionID)
	})

	t.Run("sample size caps the run", func(t *testing.T) {
		uc, state, store := newAuditFixture()
		for i := 0; i < 8; i++ {
			seedStoredVersion(state, store, []byte{byte(i)}, "")
		}

		report, err := uc.RunHashAudit(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Sampled)
	})

	t.Run("empty store audits cleanly", func(t *testing.T) {
		uc, _, _ := newAuditFixture()

		report, err := uc.RunHashAudit(ctx, 0)
		require.NoError(t, err)
		assert.Zero(t, report.Sampled)
		assert.Zero(t, report.Checked)
	})
}
