package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DuplicateRepository is the duplicate group persistence interface
type DuplicateRepository interface {
	// GetExactGroup finds the exact group for a digest, if any
	GetExactGroup(ctx context.Context, tenantID uuid.UUID, sha256 string) (*models.DuplicateGroup, error)

	// GetGroupByVersion finds the group with the given reason that the
	// version belongs to, if any
	GetGroupByVersion(ctx context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, versionID uuid.UUID) (*models.DuplicateGroup, error)

	// CreateGroup creates a group; for exact groups the partial unique
	// index rejects a second group on the same digest
	CreateGroup(ctx context.Context, group *models.DuplicateGroup) error

	// AddMember adds a version to a group; re-adding is a no-op
	AddMember(ctx context.Context, member *models.DuplicateGroupVersion) error

	// GetGroup fetches a group with its members
	GetGroup(ctx context.Context, tenantID, id uuid.UUID) (*models.DuplicateGroup, error)

	// ListGroups returns a page of groups for a tenant
	ListGroups(ctx context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, page, size int) ([]*models.DuplicateGroup, int64, error)

	// IsMember reports whether the version belongs to the group
	IsMember(ctx context.Context, groupID, versionID uuid.UUID) (bool, error)

	// SetKeepVersion records the reviewer's keep-best choice
	SetKeepVersion(ctx context.Context, groupID, versionID uuid.UUID) error

	// DeleteGroup removes the group and its memberships; member
	// versions and documents are untouched
	DeleteGroup(ctx context.Context, tenantID, groupID uuid.UUID) error
}

type duplicateRepository struct {
	db *database.DB
}

// NewDuplicateRepository creates a duplicate group repository
func NewDuplicateRepository(db *database.DB) DuplicateRepository {
	return &duplicateRepository{db: db}
}

func (r *duplicateRepository) GetExactGroup(ctx context.Context, tenantID uuid.UUID, sha256 string) (*models.DuplicateGroup, error) {
	var group models.DuplicateGroup
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sha256 = ? AND reason = ?",
			tenantID, sha256, doctypes.GroupReasonExact).
		First(&group).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exact group: %w", err)
	}
	return &group, nil
}

func (r *duplicateRepository) GetGroupByVersion(ctx context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, versionID uuid.UUID) (*models.DuplicateGroup, error) {
	var group models.DuplicateGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN duplicate_group_versions ON duplicate_group_versions.group_id = duplicate_groups.id").
		Where("duplicate_groups.tenant_id = ? AND duplicate_groups.reason = ?", tenantID, reason).
		Where("duplicate_group_versions.version_id = ?", versionID).
		First(&group).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by version: %w", err)
	}
	return &group, nil
}

func (r *duplicateRepository) CreateGroup(ctx context.Context, group *models.DuplicateGroup) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("failed to create duplicate group: %w", err)
	}

	return nil
}

func (r *duplicateRepository) AddMember(ctx context.Context, member *models.DuplicateGroupVersion) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member).Error; err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (r *duplicateRepository) GetGroup(ctx context.Context, tenantID, id uuid.UUID) (*models.DuplicateGroup, error) {
	var group models.DuplicateGroup
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to get duplicate group: %w", err)
	}
	return &group, nil
}

func (r *duplicateRepository) ListGroups(ctx context.Context, tenantID uuid.UUID, reason doctypes.GroupReason, page, size int) ([]*models.DuplicateGroup, int64, error) {
	var groups []*models.DuplicateGroup
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DuplicateGroup{}).
		Where("tenant_id = ?", tenantID)
	if reason != "" {
		query = query.Where("reason = ?", reason)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count duplicate groups: %w", err)
	}

	if err := query.
		Preload("Members").
		Order("created_at DESC").
		Scopes(database.Paginate(page, size)).
		Find(&groups).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list duplicate groups: %w", err)
	}

	return groups, total, nil
}

func (r *duplicateRepository) IsMember(ctx context.Context, groupID, versionID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DuplicateGroupVersion{}).
		Where("group_id = ? AND version_id = ?", groupID, versionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *duplicateRepository) SetKeepVersion(ctx context.Context, groupID, versionID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.DuplicateGroup{}).
		Where("id = ?", groupID).
		Updates(map[string]interface{}{
			"keep_version_id": versionID,
			"updated_at":      time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to set keep version: %w", err)
	}
	return nil
}

func (r *duplicateRepository) DeleteGroup(ctx context.Context, tenantID, groupID uuid.UUID) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		result := tx.Where("id = ? AND tenant_id = ?", groupID, tenantID).
			Delete(&models.DuplicateGroup{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete group: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("group_id = ?", groupID).
			Delete(&models.DuplicateGroupVersion{}).Error; err != nil {
			return fmt.Errorf("failed to delete group members: %w", err)
		}

		return nil
	})
}
