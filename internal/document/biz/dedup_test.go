package biz

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/hashing"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDedupFixture() (*DedupUseCase, *memState) {
	state := newMemState()
	log := testLogger()
	docs := &fakeDocumentRepo{s: state}
	status := NewStatusUseCase(docs, &fakeTagRepo{s: state}, log)
	uc := NewDedupUseCase(&fakeDuplicateRepo{s: state}, &fakeVersionRepo{s: state}, docs, &fakeIndexRepo{s: state}, status, log)
	return uc, state
}

// seedVersion creates a document with one current version for a tenant.
func seedVersion(state *memState, tenantID uuid.UUID, status doctypes.DocumentStatus, sha string) (*models.Document, *models.DocumentVersion) {
	doc := seedDocument(state, tenantID, status)
	v := &models.DocumentVersion{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		VersionNo:  1,
		StorageKey: "documents/" + doc.ID.String(),
		MimeType:   "text/plain",
		SizeBytes:  10,
		SHA256:     sha,
	}
	state.versions[v.ID] = v
	doc.CurrentVersionID = &v.ID
	return doc, v
}

// wordRun builds a text of n distinct words; mutate replaces the last
// word so two runs differ by a handful of shingles only.
func wordRun(n int, mutate bool) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%03d", i)
	}
	if mutate {
		words[n-1] = "changed"
	}
	return strings.Join(words, " ")
}

func TestDedupUseCase_SetKeepBest(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	callerID := uuid.New()
	sha := hashing.SumBytes([]byte("same"))

	t.Run("records keep and repoints the document", func(t *testing.T) {
		uc, state := newDedupFixture()
		docA, vA := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)
		_, vB := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)

		// Ingest-time grouping already picked these up.
		groupID, err := uc.FindOrCreateExactGroup(ctx, tenantID, vB.DocumentID, vB.ID, sha)
		require.NoError(t, err)
		require.NotNil(t, groupID)

		// Point the keeper's document at an unrelated version first so
		// the repoint is observable.
		otherVersion := uuid.New()
		docA.CurrentVersionID = &otherVersion

		require.NoError(t, uc.SetKeepBest(ctx, tenantID, callerID, *groupID, vA.ID))

		group := state.groups[*groupID]
		require.NotNil(t, group.KeepVersionID)
		assert.Equal(t, vA.ID, *group.KeepVersionID)
		require.NotNil(t, docA.CurrentVersionID)
		assert.Equal(t, vA.ID, *docA.CurrentVersionID)
	})

	t.Run("non-member version is rejected", func(t *testing.T) {
		uc, state := newDedupFixture()
		_, vA := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)
		_, vB := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)
		_, outsider := seedVersion(state, tenantID, doctypes.DocumentStatusActive, hashing.SumBytes([]byte("other")))
		_ = vA

		groupID, err := uc.FindOrCreateExactGroup(ctx, tenantID, vB.DocumentID, vB.ID, sha)
		require.NoError(t, err)
		require.NotNil(t, groupID)

		err = uc.SetKeepBest(ctx, tenantID, callerID, *groupID, outsider.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrGroupNotMember, apperrors.ExtractCode(err))
	})

	t.Run("unknown group", func(t *testing.T) {
		uc, _ := newDedupFixture()

		err := uc.SetKeepBest(ctx, tenantID, callerID, uuid.New(), uuid.New())
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrGroupNotFound, apperrors.ExtractCode(err))
	})
}

func TestDedupUseCase_FindOrCreateExactGroup_SkipsRetiredDocuments(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	sha := hashing.SumBytes([]byte("same"))

	uc, state := newDedupFixture()
	seedVersion(state, tenantID, doctypes.DocumentStatusArchived, sha)
	seedVersion(state, tenantID, doctypes.DocumentStatusDeleted, sha)
	_, live := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)

	// Only archived and deleted peers carry the digest, so the live
	// version stays ungrouped.
	groupID, err := uc.FindOrCreateExactGroup(ctx, tenantID, live.DocumentID, live.ID, sha)
	require.NoError(t, err)
	assert.Nil(t, groupID)
}

func TestDedupUseCase_RunNearDuplicatePass(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	seedIndex := func(state *memState, text string) *models.DocumentIndex {
		_, v := seedVersion(state, tenantID, doctypes.DocumentStatusActive, hashing.SumBytes([]byte(text)))
		idx := &models.DocumentIndex{
			VersionID:  v.ID,
			DocumentID: v.DocumentID,
			TenantID:   tenantID,
			Text:       text,
			TextHash:   hashing.SumBytes([]byte(text)),
		}
		state.indexes[v.ID] = idx
		return idx
	}

	t.Run("groups near-identical texts", func(t *testing.T) {
		uc, state := newDedupFixture()
		a := seedIndex(state, wordRun(60, false))
		b := seedIndex(state, wordRun(60, true))
		c := seedIndex(state, "completely unrelated content about gardening")

		grouped, err := uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, 1, grouped)

		require.Len(t, state.groups, 1)
		var group *models.DuplicateGroup
		for _, g := range state.groups {
			group = g
		}
		assert.Equal(t, doctypes.GroupReasonNear.String(), group.Reason)

		members := state.members[group.ID]
		require.Len(t, members, 2)
		ids := []uuid.UUID{members[0].VersionID, members[1].VersionID}
		assert.ElementsMatch(t, []uuid.UUID{a.VersionID, b.VersionID}, ids)
		for _, m := range members {
			assert.GreaterOrEqual(t, m.Similarity, 0.8)
			assert.NotEqual(t, c.VersionID, m.VersionID)
		}
	})

	t.Run("identical text is left to the exact detector", func(t *testing.T) {
		uc, state := newDedupFixture()
		text := wordRun(60, false)
		seedIndex(state, text)
		seedIndex(state, text)

		grouped, err := uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)
		assert.Zero(t, grouped)
		assert.Empty(t, state.groups)
	})

	t.Run("bridging text merges the groups it spans", func(t *testing.T) {
		uc, state := newDedupFixture()

		block := func(prefix string, n int) string {
			words := make([]string, n)
			for i := range words {
				words[i] = fmt.Sprintf("%s%03d", prefix, i)
			}
			return strings.Join(words, " ")
		}

		// Two pairs sharing a large common core. Within a pair the
		// texts are near duplicates; across pairs the similarity
		// lands just under the threshold.
		core := block("core", 100)
		a := seedIndex(state, core+" "+block("alpha", 11)+" seaside cliffs")
		x := seedIndex(state, core+" "+block("alpha", 11)+" meadow paths")
		b := seedIndex(state, core+" "+block("beta", 11)+" harbor lights")
		y := seedIndex(state, core+" "+block("beta", 11)+" orchard rows")

		_, err := uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, state.groups, 2)

		// A fifth text close enough to both pairs bridges the two
		// groups; the pass must collapse them into one instead of
		// listing the bridge twice.
		bridge := seedIndex(state, core+" lighthouse")

		_, err = uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)

		require.Len(t, state.groups, 1)
		seen := make(map[uuid.UUID]int)
		for gid := range state.groups {
			require.Len(t, state.members[gid], 5)
			for _, m := range state.members[gid] {
				seen[m.VersionID]++
			}
		}
		for _, idx := range []*models.DocumentIndex{a, x, b, y, bridge} {
			assert.Equal(t, 1, seen[idx.VersionID], "version %s must sit in exactly one group", idx.VersionID)
		}
	})

	t.Run("rerunning reuses the existing group", func(t *testing.T) {
		uc, state := newDedupFixture()
		seedIndex(state, wordRun(60, false))
		seedIndex(state, wordRun(60, true))

		_, err := uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)
		_, err = uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)

		assert.Len(t, state.groups, 1)
		for gid := range state.groups {
			assert.Len(t, state.members[gid], 2)
		}
	})

	t.Run("fewer than two indexed versions is a no-op", func(t *testing.T) {
		uc, state := newDedupFixture()
		seedIndex(state, wordRun(60, false))

		grouped, err := uc.RunNearDuplicatePass(ctx, tenantID)
		require.NoError(t, err)
		assert.Zero(t, grouped)
	})
}

func TestDedupUseCase_ResolveDuplicates(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	sha := hashing.SumBytes([]byte("triplets"))

	setup := func() (*DedupUseCase, *memState, uuid.UUID, []*models.Document, []*models.DocumentVersion) {
		uc, state := newDedupFixture()
		var docs []*models.Document
		var versions []*models.DocumentVersion
		for i := 0; i < 3; i++ {
			d, v := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)
			docs = append(docs, d)
			versions = append(versions, v)
		}
		groupID, err := uc.FindOrCreateExactGroup(ctx, tenantID, versions[2].DocumentID, versions[2].ID, sha)
		if err != nil || groupID == nil {
			panic("fixture group missing")
		}
		return uc, state, *groupID, docs, versions
	}

	t.Run("archives everything but the keeper", func(t *testing.T) {
		uc, _, groupID, docs, versions := setup()

		result, err := uc.ResolveDuplicates(ctx, tenantID, groupID, versions[0].ID, doctypes.ResolveActionArchive)
		require.NoError(t, err)
		assert.Equal(t, 2, result.SuccessCount)
		assert.Zero(t, result.FailedCount)

		assert.Equal(t, doctypes.DocumentStatusActive.String(), docs[0].Status)
		assert.Equal(t, doctypes.DocumentStatusArchived.String(), docs[1].Status)
		assert.Equal(t, doctypes.DocumentStatusArchived.String(), docs[2].Status)
	})

	t.Run("delete action soft-deletes the rest", func(t *testing.T) {
		uc, _, groupID, docs, versions := setup()

		result, err := uc.ResolveDuplicates(ctx, tenantID, groupID, versions[1].ID, doctypes.ResolveActionDelete)
		require.NoError(t, err)
		assert.Equal(t, 2, result.SuccessCount)
		assert.Equal(t, doctypes.DocumentStatusActive.String(), docs[1].Status)
		assert.Equal(t, doctypes.DocumentStatusDeleted.String(), docs[0].Status)
		assert.NotNil(t, docs[0].DeletedAt)
	})

	t.Run("keep version must be a member", func(t *testing.T) {
		uc, state, groupID, _, _ := setup()
		_, outsider := seedVersion(state, tenantID, doctypes.DocumentStatusActive, hashing.SumBytes([]byte("other")))

		_, err := uc.ResolveDuplicates(ctx, tenantID, groupID, outsider.ID, doctypes.ResolveActionArchive)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrGroupNotMember, apperrors.ExtractCode(err))
	})

	t.Run("unknown action", func(t *testing.T) {
		uc, _, groupID, _, versions := setup()

		_, err := uc.ResolveDuplicates(ctx, tenantID, groupID, versions[0].ID, doctypes.ResolveAction("purge"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrValidation, apperrors.ExtractCode(err))
	})
}

func TestDedupUseCase_DismissGroup(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	sha := hashing.SumBytes([]byte("pair"))

	uc, state := newDedupFixture()
	_, vA := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)
	_, vB := seedVersion(state, tenantID, doctypes.DocumentStatusActive, sha)
	_ = vA

	groupID, err := uc.FindOrCreateExactGroup(ctx, tenantID, vB.DocumentID, vB.ID, sha)
	require.NoError(t, err)
	require.NotNil(t, groupID)

	require.NoError(t, uc.DismissGroup(ctx, tenantID, *groupID))
	assert.Empty(t, state.groups)
	assert.Empty(t, state.members)

	// Member documents and versions survive the dismissal.
	assert.Len(t, state.docs, 2)
	assert.Len(t, state.versions, 2)

	err = uc.DismissGroup(ctx, tenantID, *groupID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrGroupNotFound, apperrors.ExtractCode(err))
}
