package instance

import (
	"context"
	"errors"
	"strings"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

var instanceColumns = []string{
	"external_id", "display_name", "is_active", "sync_status",
	"last_synced_at", "raw_data",
	"updated_at", "updated_by", "version", "row_stamp",
}

var valueColumns = []string{
	"value", "display_value", "is_default", "effective_from", "effective_to",
	"updated_at", "updated_by", "version", "row_stamp",
}

type InstanceRepository interface {
	CreateWithValues(ctx context.Context, inst *EntityInstance, values []PropertyValue) error
	FindByID(ctx context.Context, id string) (*EntityInstance, error)
	ListValues(ctx context.Context, instanceID string) ([]PropertyValue, error)
	ExternalIDExists(ctx context.Context, definitionID, externalID, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]EntityInstance, int64, error)

	// UpdateWithValues replaces the instance row under an optimistic
	// version guard and applies the computed value delta in the same
	// transaction.
	UpdateWithValues(ctx context.Context, inst *EntityInstance, expectedVersion int64, inserts, updates []PropertyValue, removeIDs []string) error
	SoftDelete(ctx context.Context, inst *EntityInstance) error

	ListForExport(ctx context.Context, filter ListFilter) ([]EntityInstance, error)
	ListValuesByInstanceIDs(ctx context.Context, instanceIDs []string) ([]PropertyValue, error)
	InstanceExists(ctx context.Context, id string) (bool, error)
}

type InstanceRepositoryImpl struct {
	DB *gorm.DB
}

func NewInstanceRepository(db *database.Database) InstanceRepository {
	return &InstanceRepositoryImpl{DB: db.DB}
}

func (r *InstanceRepositoryImpl) CreateWithValues(ctx context.Context, inst *EntityInstance, values []PropertyValue) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inst).Error; err != nil {
			return err
		}
		for i := range values {
			values[i].EntityInstanceID = inst.ID
			if err := tx.Create(&values[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InstanceRepositoryImpl) FindByID(ctx context.Context, id string) (*EntityInstance, error) {
	var inst EntityInstance
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		First(&inst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("entity instance %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *InstanceRepositoryImpl) ListValues(ctx context.Context, instanceID string) ([]PropertyValue, error) {
	var values []PropertyValue
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("entity_instance_id = ?", instanceID).
		Order("created_at ASC").
		Find(&values).Error
	return values, err
}

func (r *InstanceRepositoryImpl) ExternalIDExists(ctx context.Context, definitionID, externalID, excludeID string) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&EntityInstance{}).
		Scopes(models.NotDeleted).
		Where("entity_definition_id = ? AND lower(external_id) = ?", definitionID, strings.ToLower(externalID))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *InstanceRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]EntityInstance, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var instances []EntityInstance
	err := query.Order("display_name ASC").Scopes(models.Paginate(page)).Find(&instances).Error
	if err != nil {
		return nil, 0, err
	}
	return instances, total, nil
}

func (r *InstanceRepositoryImpl) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	query := r.DB.WithContext(ctx).Model(&EntityInstance{}).Scopes(models.NotDeleted)

	if filter.EntityDefinitionID != "" {
		query = query.Where("entity_definition_id = ?", filter.EntityDefinitionID)
	}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("lower(display_name) LIKE ? OR lower(external_id) LIKE ?", needle, needle)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.SyncStatus != "" {
		query = query.Where("sync_status = ?", filter.SyncStatus)
	}
	return query
}

func (r *InstanceRepositoryImpl) UpdateWithValues(ctx context.Context, inst *EntityInstance, expectedVersion int64, inserts, updates []PropertyValue, removeIDs []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&EntityInstance{}).
			Where("id = ? AND version = ? AND is_deleted = ?", inst.ID, expectedVersion, false).
			Select(instanceColumns).
			Updates(inst)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.staleOrMissing(tx, inst.ID)
		}

		for i := range inserts {
			inserts[i].EntityInstanceID = inst.ID
			if err := tx.Create(&inserts[i]).Error; err != nil {
				return err
			}
		}
		for i := range updates {
			res := tx.Model(&PropertyValue{}).
				Where("id = ? AND entity_instance_id = ? AND is_deleted = ?", updates[i].ID, inst.ID, false).
				Select(valueColumns).
				Updates(&updates[i])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("property value %s not found on entity instance %s", updates[i].ID, inst.ID)
			}
		}
		if len(removeIDs) > 0 {
			err := tx.Model(&PropertyValue{}).
				Where("id IN ? AND entity_instance_id = ?", removeIDs, inst.ID).
				Updates(map[string]any{
					"is_deleted": true,
					"deleted_at": inst.UpdatedAt,
					"deleted_by": inst.UpdatedBy,
					"updated_at": inst.UpdatedAt,
					"updated_by": inst.UpdatedBy,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InstanceRepositoryImpl) staleOrMissing(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&EntityInstance{}).
		Scopes(models.NotDeleted).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("entity instance %s not found", id)
	}
	return apperr.Conflict("entity instance %s was modified by another caller", id)
}

// SoftDelete tombstones the instance and every value it owns in one
// transaction.
func (r *InstanceRepositoryImpl) SoftDelete(ctx context.Context, inst *EntityInstance) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&EntityInstance{}).
			Where("id = ? AND is_deleted = ?", inst.ID, false).
			Select("is_deleted", "deleted_at", "deleted_by", "updated_at", "updated_by", "version", "row_stamp").
			Updates(inst)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("entity instance %s not found", inst.ID)
		}

		return tx.Model(&PropertyValue{}).
			Where("entity_instance_id = ? AND is_deleted = ?", inst.ID, false).
			Updates(map[string]any{
				"is_deleted": true,
				"deleted_at": inst.DeletedAt,
				"deleted_by": inst.DeletedBy,
				"updated_at": inst.UpdatedAt,
				"updated_by": inst.UpdatedBy,
			}).Error
	})
}

func (r *InstanceRepositoryImpl) ListForExport(ctx context.Context, filter ListFilter) ([]EntityInstance, error) {
	var instances []EntityInstance
	err := r.filtered(ctx, filter).Order("display_name ASC").Find(&instances).Error
	return instances, err
}

func (r *InstanceRepositoryImpl) ListValuesByInstanceIDs(ctx context.Context, instanceIDs []string) ([]PropertyValue, error) {
	if len(instanceIDs) == 0 {
		return nil, nil
	}
	var values []PropertyValue
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("entity_instance_id IN ?", instanceIDs).
		Find(&values).Error
	return values, err
}

func (r *InstanceRepositoryImpl) InstanceExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&EntityInstance{}).
		Scopes(models.NotDeleted).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
