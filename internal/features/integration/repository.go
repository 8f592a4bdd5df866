package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

// systemColumns are the writable columns for a whole-record update;
// identity and creation audit fields are never touched.
var systemColumns = []string{
	"name", "display_name", "description", "system_type", "connection_string",
	"authentication_type", "is_active", "configuration",
	"updated_at", "updated_by", "version", "row_stamp",
}

type IntegrationRepository interface {
	Create(ctx context.Context, sys *IntegrationSystem) error
	FindByID(ctx context.Context, id string) (*IntegrationSystem, error)
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]IntegrationSystem, int64, error)
	Update(ctx context.Context, sys *IntegrationSystem, expectedVersion int64) error
	SoftDelete(ctx context.Context, sys *IntegrationSystem) error

	// Narrow lookups other features depend on.
	SystemExists(ctx context.Context, id string) (bool, error)
	MarkSynced(ctx context.Context, id string, status models.SyncStatus, at time.Time) error
}

type IntegrationRepositoryImpl struct {
	DB *gorm.DB
}

func NewIntegrationRepository(db *database.Database) IntegrationRepository {
	return &IntegrationRepositoryImpl{DB: db.DB}
}

func (r *IntegrationRepositoryImpl) Create(ctx context.Context, sys *IntegrationSystem) error {
	return r.DB.WithContext(ctx).Create(sys).Error
}

func (r *IntegrationRepositoryImpl) FindByID(ctx context.Context, id string) (*IntegrationSystem, error) {
	var sys IntegrationSystem
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		First(&sys, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("integration system %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &sys, nil
}

func (r *IntegrationRepositoryImpl) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&IntegrationSystem{}).
		Scopes(models.NotDeleted).
		Where("lower(name) = ?", strings.ToLower(name))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *IntegrationRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]IntegrationSystem, int64, error) {
	query := r.DB.WithContext(ctx).Model(&IntegrationSystem{}).Scopes(models.NotDeleted)

	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(display_name) LIKE ?", needle, needle)
	}
	if filter.SystemType != "" {
		query = query.Where("system_type = ?", filter.SystemType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var systems []IntegrationSystem
	err := query.Order("name ASC").Scopes(models.Paginate(page)).Find(&systems).Error
	if err != nil {
		return nil, 0, err
	}
	return systems, total, nil
}

// Update performs an optimistic whole-record write. A stale version token
// is surfaced as a conflict, never silently overwritten.
func (r *IntegrationRepositoryImpl) Update(ctx context.Context, sys *IntegrationSystem, expectedVersion int64) error {
	res := r.DB.WithContext(ctx).Model(&IntegrationSystem{}).
		Where("id = ? AND version = ? AND is_deleted = ?", sys.ID, expectedVersion, false).
		Select(systemColumns).
		Updates(sys)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(ctx, sys.ID)
	}
	return nil
}

func (r *IntegrationRepositoryImpl) SoftDelete(ctx context.Context, sys *IntegrationSystem) error {
	res := r.DB.WithContext(ctx).Model(&IntegrationSystem{}).
		Where("id = ? AND is_deleted = ?", sys.ID, false).
		Select("is_deleted", "deleted_at", "deleted_by", "updated_at", "updated_by", "version", "row_stamp").
		Updates(sys)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("integration system %s not found", sys.ID)
	}
	return nil
}

func (r *IntegrationRepositoryImpl) SystemExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&IntegrationSystem{}).
		Scopes(models.NotDeleted).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// MarkSynced stamps the outcome of a sync run onto the system row without
// advancing the concurrency token; sync status is operational state, not
// a client-editable field.
func (r *IntegrationRepositoryImpl) MarkSynced(ctx context.Context, id string, status models.SyncStatus, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&IntegrationSystem{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"last_sync_status": status, "last_synced_at": at}).Error
}

func (r *IntegrationRepositoryImpl) staleOrMissing(ctx context.Context, id string) error {
	exists, err := r.SystemExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("integration system %s not found", id)
	}
	return apperr.Conflict("integration system %s was modified by another caller", id)
}
