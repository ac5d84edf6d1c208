package biz

import (
	"context"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// DedupUseCase groups versions carrying duplicate content and lets an
// operator resolve the groups.
type DedupUseCase struct {
	groups   repository.DuplicateRepository
	versions repository.VersionRepository
	docs     repository.DocumentRepository
	indexes  repository.IndexRepository
	status   *StatusUseCase
	logger   *logger.Logger
}

// NewDedupUseCase creates the dedup use case.
func NewDedupUseCase(
	groups repository.DuplicateRepository,
	versions repository.VersionRepository,
	docs repository.DocumentRepository,
	indexes repository.IndexRepository,
	status *StatusUseCase,
	log *logger.Logger,
) *DedupUseCase {
	return &DedupUseCase{
		groups:   groups,
		versions: versions,
		docs:     docs,
		indexes:  indexes,
		status:   status,
		logger:   log,
	}
}

// FindOrCreateExactGroup searches the tenant for other live versions
// with an identical digest. When found, all of them end up in a single
// exact group; a unique version returns nil. Duplicate detection is
// deliberately application-level: legitimate duplicates stay
// independently listable.
func (uc *DedupUseCase) FindOrCreateExactGroup(ctx context.Context, tenantID, documentID, versionID uuid.UUID, sha256 string) (*uuid.UUID, error) {
	peers, err := uc.versions.ListBySHA256(ctx, tenantID, sha256)
	if err != nil {
		return nil, err
	}

	others := make([]*models.DocumentVersion, 0, len(peers))
	for _, p := range peers {
		if p.ID != versionID {
			others = append(others, p)
		}
	}
	if len(others) == 0 {
		return nil, nil
	}

	group, err := uc.groups.GetExactGroup(ctx, tenantID, sha256)
	if err != nil {
		return nil, err
	}
	if group == nil {
		group = &models.DuplicateGroup{
			ID:       uuid.New(),
			TenantID: tenantID,
			Reason:   doctypes.GroupReasonExact.String(),
			SHA256:   sha256,
		}
		if err := uc.groups.CreateGroup(ctx, group); err != nil {
			// A concurrent finalize may have created it; read it back.
			existing, getErr := uc.groups.GetExactGroup(ctx, tenantID, sha256)
			if getErr != nil || existing == nil {
				return nil, err
			}
			group = existing
		}
	}

	if err := uc.groups.AddMember(ctx, &models.DuplicateGroupVersion{
		GroupID:    group.ID,
		VersionID:  versionID,
		DocumentID: documentID,
		Similarity: 1,
	}); err != nil {
		return nil, err
	}
	for _, p := range others {
		if err := uc.groups.AddMember(ctx, &models.DuplicateGroupVersion{
			GroupID:    group.ID,
			VersionID:  p.ID,
			DocumentID: p.DocumentID,
			Similarity: 1,
		}); err != nil {
			return nil, err
		}
	}

	uc.logger.Info("exact duplicate group updated",
		zap.String("group_id", group.ID.String()),
		zap.String("sha256", sha256),
		zap.Int("peers", len(others)))

	return &group.ID, nil
}

// RunNearDuplicatePass compares the extracted text of every indexed
// version in a tenant pairwise and groups pairs whose shingle sets
// overlap enough. Exact duplicates (identical text hash) are left to
// the exact detector. Returns the number of grouped pairs.
func (uc *DedupUseCase) RunNearDuplicatePass(ctx context.Context, tenantID uuid.UUID) (int, error) {
	rows, err := uc.indexes.ListByTenant(ctx, tenantID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if len(rows) < 2 {
		return 0, nil
	}

	shingles := make([]map[string]struct{}, len(rows))
	for i, row := range rows {
		shingles[i] = Shingles(row.Text, shingleSize)
	}

	grouped := 0
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[i].TextHash != "" && rows[i].TextHash == rows[j].TextHash {
				continue
			}

			sim := Jaccard(shingles[i], shingles[j])
			if sim < nearThreshold {
				continue
			}

			if err := uc.groupNearPair(ctx, tenantID, rows[i], rows[j], sim); err != nil {
				uc.logger.Warn("failed to group near duplicates",
					zap.String("version_a", rows[i].VersionID.String()),
					zap.String("version_b", rows[j].VersionID.String()),
					zap.Error(err))
				continue
			}
			grouped++
		}
	}

	return grouped, nil
}

// groupNearPair reuses whichever near group either version already
// belongs to, creating a new one only when both are ungrouped. When
// the pair bridges two distinct groups, the groups are merged so a
// version never sits in more than one near group.
func (uc *DedupUseCase) groupNearPair(ctx context.Context, tenantID uuid.UUID, a, b *models.DocumentIndex, sim float64) error {
	group, err := uc.groups.GetGroupByVersion(ctx, tenantID, doctypes.GroupReasonNear, a.VersionID)
	if err != nil {
		return err
	}
	other, err := uc.groups.GetGroupByVersion(ctx, tenantID, doctypes.GroupReasonNear, b.VersionID)
	if err != nil {
		return err
	}
	if group == nil {
		group = other
	} else if other != nil && other.ID != group.ID {
		if err := uc.mergeNearGroups(ctx, tenantID, group, other); err != nil {
			return err
		}
	}
	if group == nil {
		group = &models.DuplicateGroup{
			ID:       uuid.New(),
			TenantID: tenantID,
			Reason:   doctypes.GroupReasonNear.String(),
		}
		if err := uc.groups.CreateGroup(ctx, group); err != nil {
			return err
		}
	}

	for _, row := range []*models.DocumentIndex{a, b} {
		if err := uc.groups.AddMember(ctx, &models.DuplicateGroupVersion{
			GroupID:    group.ID,
			VersionID:  row.VersionID,
			DocumentID: row.DocumentID,
			Similarity: sim,
		}); err != nil {
			return err
		}
	}

	return nil
}

// mergeNearGroups moves every member of src into dst and drops the
// emptied src group.
func (uc *DedupUseCase) mergeNearGroups(ctx context.Context, tenantID uuid.UUID, dst, src *models.DuplicateGroup) error {
	full, err := uc.groups.GetGroup(ctx, tenantID, src.ID)
	if err != nil {
		return err
	}

	for i := range full.Members {
		m := full.Members[i]
		if err := uc.groups.AddMember(ctx, &models.DuplicateGroupVersion{
			GroupID:    dst.ID,
			VersionID:  m.VersionID,
			DocumentID: m.DocumentID,
			Similarity: m.Similarity,
		}); err != nil {
			return err
		}
	}

	if err := uc.groups.DeleteGroup(ctx, tenantID, src.ID); err != nil {
		return err
	}

	uc.logger.Info("merged near duplicate groups",
		zap.String("into", dst.ID.String()),
		zap.String("from", src.ID.String()),
		zap.Int("moved", len(full.Members)))

	return nil
}

// SetKeepBest records the reviewer's choice and repoints the owning
// document's current version at it. Other members are untouched.
func (uc *DedupUseCase) SetKeepBest(ctx context.Context, tenantID, callerID, groupID, versionID uuid.UUID) error {
	group, err := uc.getGroup(ctx, tenantID, groupID)
	if err != nil {
		return err
	}

	member, err := uc.groups.IsMember(ctx, group.ID, versionID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if !member {
		return apperrors.New(apperrors.ErrGroupNotMember, "version is not a member of the group")
	}

	if err := uc.groups.SetKeepVersion(ctx, group.ID, versionID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	version, err := uc.versions.GetByID(ctx, versionID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	doc, err := uc.docs.GetByID(ctx, tenantID, version.DocumentID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if doc.CurrentVersionID == nil || *doc.CurrentVersionID != versionID {
		if err := uc.docs.SetCurrentVersion(ctx, doc.ID, versionID); err != nil {
			return apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
	}

	uc.logger.Info("keep-best recorded",
		zap.String("group_id", groupID.String()),
		zap.String("version_id", versionID.String()),
		zap.String("caller_id", callerID.String()))
	return nil
}

// ResolveDuplicates applies archive or delete to the owning document
// of every member except the kept version, with per-item tolerance.
func (uc *DedupUseCase) ResolveDuplicates(ctx context.Context, tenantID, groupID, keepVersionID uuid.UUID, action doctypes.ResolveAction) (*BulkResult, error) {
	if !action.Valid() {
		return nil, apperrors.Newf(apperrors.ErrValidation, "unrecognized action %q", action)
	}

	group, err := uc.getGroup(ctx, tenantID, groupID)
	if err != nil {
		return nil, err
	}

	member, err := uc.groups.IsMember(ctx, group.ID, keepVersionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if !member {
		return nil, apperrors.New(apperrors.ErrGroupNotMember, "keep version is not a member of the group")
	}

	target := doctypes.DocumentStatusArchived
	if action == doctypes.ResolveActionDelete {
		target = doctypes.DocumentStatusDeleted
	}

	result := &BulkResult{}
	for _, m := range group.Members {
		if m.VersionID == keepVersionID {
			continue
		}
		if err := uc.status.UpdateStatus(ctx, tenantID, m.DocumentID, target); err != nil {
			result.FailedCount++
			result.Failed = append(result.Failed, m.DocumentID.String())
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

// DismissGroup deletes the group and its memberships; member versions
// and documents are untouched.
func (uc *DedupUseCase) DismissGroup(ctx context.Context, tenantID, groupID uuid.UUID) error {
	if err := uc.groups.DeleteGroup(ctx, tenantID, groupID); err != nil {
		if database.IsRecordNotFoundError(err) {
			return apperrors.New(apperrors.ErrGroupNotFound)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nil
}

// ListGroups pages a tenant's duplicate groups.
func (uc *DedupUseCase) ListGroups(ctx context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, page, size int) ([]*models.DuplicateGroup, int64, error) {
	groups, total, err := uc.groups.ListGroups(ctx, tenantID, reason, page, size)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return groups, total, nil
}

func (uc *DedupUseCase) getGroup(ctx context.Context, tenantID, groupID uuid.UUID) (*models.DuplicateGroup, error) {
	group, err := uc.groups.GetGroup(ctx, tenantID, groupID)
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrGroupNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return group, nil
}
