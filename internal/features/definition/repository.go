package definition

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

var definitionColumns = []string{
	"name", "display_name", "description", "table_name", "primary_key_field",
	"is_active", "sort_order", "metadata",
	"updated_at", "updated_by", "version", "row_stamp",
}

type DefinitionRepository interface {
	Create(ctx context.Context, def *EntityDefinition) error
	FindByID(ctx context.Context, id string) (*EntityDefinition, error)
	NameExistsInSystem(ctx context.Context, systemID, name, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]EntityDefinition, int64, error)
	Update(ctx context.Context, def *EntityDefinition, expectedVersion int64) error
	SoftDeleteCascade(ctx context.Context, def *EntityDefinition) error
	HasAssignedInstances(ctx context.Context, definitionID string) (bool, error)

	// Narrow lookups other features depend on.
	CountBySystem(ctx context.Context, systemID string) (int64, error)
	DefinitionExists(ctx context.Context, id string) (bool, error)
}

type DefinitionRepositoryImpl struct {
	DB *gorm.DB
}

func NewDefinitionRepository(db *database.Database) DefinitionRepository {
	return &DefinitionRepositoryImpl{DB: db.DB}
}

func (r *DefinitionRepositoryImpl) Create(ctx context.Context, def *EntityDefinition) error {
	return r.DB.WithContext(ctx).Create(def).Error
}

func (r *DefinitionRepositoryImpl) FindByID(ctx context.Context, id string) (*EntityDefinition, error) {
	var def EntityDefinition
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		First(&def, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("entity definition %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *DefinitionRepositoryImpl) NameExistsInSystem(ctx context.Context, systemID, name, excludeID string) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&EntityDefinition{}).
		Scopes(models.NotDeleted).
		Where("integration_system_id = ? AND lower(name) = ?", systemID, strings.ToLower(name))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *DefinitionRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]EntityDefinition, int64, error) {
	query := r.DB.WithContext(ctx).Model(&EntityDefinition{}).Scopes(models.NotDeleted)

	if filter.IntegrationSystemID != "" {
		query = query.Where("integration_system_id = ?", filter.IntegrationSystemID)
	}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(display_name) LIKE ?", needle, needle)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var defs []EntityDefinition
	err := query.Order("sort_order ASC, name ASC").Scopes(models.Paginate(page)).Find(&defs).Error
	if err != nil {
		return nil, 0, err
	}
	return defs, total, nil
}

func (r *DefinitionRepositoryImpl) Update(ctx context.Context, def *EntityDefinition, expectedVersion int64) error {
	res := r.DB.WithContext(ctx).Model(&EntityDefinition{}).
		Where("id = ? AND version = ? AND is_deleted = ?", def.ID, expectedVersion, false).
		Select(definitionColumns).
		Updates(def)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := r.DefinitionExists(ctx, def.ID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("entity definition %s not found", def.ID)
		}
		return apperr.Conflict("entity definition %s was modified by another caller", def.ID)
	}
	return nil
}

// SoftDeleteCascade marks the definition and everything it owns deleted
// in one transaction: property definitions, entity instances, and the
// property values of those instances.
func (r *DefinitionRepositoryImpl) SoftDeleteCascade(ctx context.Context, def *EntityDefinition) error {
	now := time.Now().UTC()
	tombstone := map[string]any{
		"is_deleted": true,
		"deleted_at": now,
		"deleted_by": def.DeletedBy,
		"updated_at": now,
		"updated_by": def.DeletedBy,
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&EntityDefinition{}).
			Where("id = ? AND is_deleted = ?", def.ID, false).
			Select("is_deleted", "deleted_at", "deleted_by", "updated_at", "updated_by", "version", "row_stamp").
			Updates(def)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("entity definition %s not found", def.ID)
		}

		if err := tx.Table("property_values").
			Where("entity_instance_id IN (?)",
				tx.Table("entity_instances").Select("id").
					Where("entity_definition_id = ? AND is_deleted = ?", def.ID, false)).
			Where("is_deleted = ?", false).
			Updates(tombstone).Error; err != nil {
			return err
		}

		if err := tx.Table("entity_instances").
			Where("entity_definition_id = ? AND is_deleted = ?", def.ID, false).
			Updates(tombstone).Error; err != nil {
			return err
		}

		return tx.Table("property_definitions").
			Where("entity_definition_id = ? AND is_deleted = ?", def.ID, false).
			Updates(tombstone).Error
	})
}

// HasAssignedInstances reports whether any live instance of the
// definition is still referenced by an access assignment as user or role.
func (r *DefinitionRepositoryImpl) HasAssignedInstances(ctx context.Context, definitionID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Table("access_assignments").
		Joins("JOIN entity_instances ON entity_instances.id = access_assignments.user_instance_id OR entity_instances.id = access_assignments.role_instance_id").
		Where("entity_instances.entity_definition_id = ?", definitionID).
		Where("entity_instances.is_deleted = ? AND access_assignments.is_deleted = ?", false, false).
		Count(&count).Error
	return count > 0, err
}

func (r *DefinitionRepositoryImpl) CountBySystem(ctx context.Context, systemID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&EntityDefinition{}).
		Scopes(models.NotDeleted).
		Where("integration_system_id = ?", systemID).
		Count(&count).Error
	return count, err
}

func (r *DefinitionRepositoryImpl) DefinitionExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&EntityDefinition{}).
		Scopes(models.NotDeleted).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
