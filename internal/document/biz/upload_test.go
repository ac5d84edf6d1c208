package biz

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUploadConfig() conf.UploadConfig {
	return conf.UploadConfig{
		MaxSizeBytes: 1 << 20,
		PresignTTL:   15 * time.Minute,
		AllowedMimeTypes: []string{
			"application/pdf",
			"text/plain",
			"text/markdown",
			"application/json",
		},
	}
}

func newUploadFixture() (*UploadUseCase, *memState, *fakeGateway) {
	state := newMemState()
	store := newFakeGateway()
	uc := NewUploadUseCase(
		&fakeUploadRepo{s: state},
		&fakeDocumentRepo{s: state},
		store,
		testUploadConfig(),
		testLogger(),
	)
	return uc, state, store
}

func TestUploadUseCase_RequestUpload(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ownerID := uuid.New()

	t.Run("allocates all ids up front", func(t *testing.T) {
		uc, state, _ := newUploadFixture()

		ticket, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "report.pdf",
			MimeType:  "application/pdf",
			SizeBytes: 2048,
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, ticket.UploadID)
		assert.NotEqual(t, uuid.Nil, ticket.DocumentID)
		assert.NotEqual(t, uuid.Nil, ticket.VersionID)
		assert.Contains(t, ticket.PresignedPutURL, "quarantine/")
		assert.True(t, ticket.ExpiresAt.After(time.Now()))

		upload := state.uploads[ticket.UploadID]
		require.NotNil(t, upload)
		assert.Equal(t, doctypes.UploadStatusPresigned.String(), upload.Status)
		assert.Equal(t, ticket.DocumentID, upload.DocumentID)
		assert.Equal(t, ticket.VersionID, upload.VersionID)

		// No document row exists until finalize verifies the bytes.
		assert.Empty(t, state.docs)
		assert.Empty(t, state.versions)
	})

	t.Run("rejects oversized declaration", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		_, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "huge.pdf",
			MimeType:  "application/pdf",
			SizeBytes: (1 << 20) + 1,
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrUploadInvalidSize, apperrors.ExtractCode(err))
	})

	t.Run("rejects zero size", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		_, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "empty.pdf",
			MimeType:  "application/pdf",
			SizeBytes: 0,
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrUploadInvalidSize, apperrors.ExtractCode(err))
	})

	t.Run("rejects disallowed mime type", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		_, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "movie.mp4",
			MimeType:  "video/mp4",
			SizeBytes: 2048,
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrUploadInvalidMime, apperrors.ExtractCode(err))
	})

	t.Run("rejects malformed declared digest", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		_, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "notes.txt",
			MimeType:  "text/plain",
			SizeBytes: 10,
			SHA256:    "not-a-digest",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrValidation, apperrors.ExtractCode(err))
	})

	t.Run("appending to unknown document fails", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		_, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:   tenantID,
			OwnerID:    ownerID,
			Filename:   "v2.pdf",
			MimeType:   "application/pdf",
			SizeBytes:  100,
			DocumentID: uuid.New(),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrDocumentNotFound, apperrors.ExtractCode(err))
	})
}

func TestUploadUseCase_CancelUpload(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ownerID := uuid.New()

	t.Run("cancels a presigned session", func(t *testing.T) {
		uc, state, store := newUploadFixture()

		ticket, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "draft.txt",
			MimeType:  "text/plain",
			SizeBytes: 10,
		})
		require.NoError(t, err)

		upload := state.uploads[ticket.UploadID]
		store.put(upload.QuarantineKey, []byte("partial"))

		require.NoError(t, uc.CancelUpload(ctx, tenantID, ownerID, ticket.UploadID))

		assert.Equal(t, doctypes.UploadStatusFailed.String(), state.uploads[ticket.UploadID].Status)
		assert.False(t, store.has(upload.QuarantineKey))
	})

	t.Run("rejects a foreign owner", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		ticket, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "draft.txt",
			MimeType:  "text/plain",
			SizeBytes: 10,
		})
		require.NoError(t, err)

		err = uc.CancelUpload(ctx, tenantID, uuid.New(), ticket.UploadID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrForbidden, apperrors.ExtractCode(err))
	})

	t.Run("terminal sessions are not cancelable", func(t *testing.T) {
		uc, state, _ := newUploadFixture()

		ticket, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  "draft.txt",
			MimeType:  "text/plain",
			SizeBytes: 10,
		})
		require.NoError(t, err)

		state.uploads[ticket.UploadID].Status = doctypes.UploadStatusIngested.String()

		err = uc.CancelUpload(ctx, tenantID, ownerID, ticket.UploadID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrUploadNotCancelable, apperrors.ExtractCode(err))
	})

	t.Run("unknown upload", func(t *testing.T) {
		uc, _, _ := newUploadFixture()

		err := uc.CancelUpload(ctx, tenantID, ownerID, uuid.New())
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrUploadNotFound, apperrors.ExtractCode(err))
	})
}

func TestUploadUseCase_ExpireStale(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ownerID := uuid.New()

	uc, state, store := newUploadFixture()

	mkUpload := func(filename string) *UploadTicket {
		ticket, err := uc.RequestUpload(ctx, RequestUploadInput{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Filename:  filename,
			MimeType:  "text/plain",
			SizeBytes: 10,
		})
		require.NoError(t, err)
		return ticket
	}

	stale := mkUpload("stale.txt")
	fresh := mkUpload("fresh.txt")
	done := mkUpload("done.txt")

	state.uploads[stale.UploadID].ExpiresAt = time.Now().Add(-time.Hour)
	store.put(state.uploads[stale.UploadID].QuarantineKey, []byte("abandoned"))

	// An expired but already finalized session must be left alone.
	state.uploads[done.UploadID].ExpiresAt = time.Now().Add(-time.Hour)
	state.uploads[done.UploadID].Status = doctypes.UploadStatusIngested.String()

	expired, err := uc.ExpireStale(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, doctypes.UploadStatusFailed.String(), state.uploads[stale.UploadID].Status)
	assert.NotEmpty(t, state.uploads[stale.UploadID].ErrorMessage)
	assert.False(t, store.has(state.uploads[stale.UploadID].QuarantineKey))

	assert.Equal(t, doctypes.UploadStatusPresigned.String(), state.uploads[fresh.UploadID].Status)
	assert.Equal(t, doctypes.UploadStatusIngested.String(), state.uploads[done.UploadID].Status)
}

func TestUploadUseCase_MarkUploaded(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ownerID := uuid.New()

	uc, state, _ := newUploadFixture()

	ticket, err := uc.RequestUpload(ctx, RequestUploadInput{
		TenantID:  tenantID,
		OwnerID:   ownerID,
		Filename:  "notes.md",
		MimeType:  "text/markdown",
		SizeBytes: 64,
	})
	require.NoError(t, err)

	require.NoError(t, uc.MarkUploaded(ctx, tenantID, ownerID, ticket.UploadID))
	assert.Equal(t, doctypes.UploadStatusUploaded.String(), state.uploads[ticket.UploadID].Status)

	// A second report finds the session past presigned.
	err = uc.MarkUploaded(ctx, tenantID, ownerID, ticket.UploadID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidState, apperrors.ExtractCode(err))
}
