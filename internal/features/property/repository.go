package property

import (
	"context"
	"errors"
	"strings"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

var propertyColumns = []string{
	"name", "display_name", "description", "data_type", "source_field",
	"is_required", "is_unique", "is_searchable", "is_displayed", "is_editable",
	"sort_order", "default_value", "validation_rules", "ui_metadata",
	"updated_at", "updated_by", "version", "row_stamp",
}

type PropertyRepository interface {
	Create(ctx context.Context, prop *PropertyDefinition) error
	FindByID(ctx context.Context, id string) (*PropertyDefinition, error)
	NameExistsInDefinition(ctx context.Context, definitionID, name, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]PropertyDefinition, int64, error)
	Update(ctx context.Context, prop *PropertyDefinition, expectedVersion int64) error
	SoftDelete(ctx context.Context, prop *PropertyDefinition) error

	// ListByDefinition returns every live property of a definition; the
	// instance store validates and projects values against it.
	ListByDefinition(ctx context.Context, definitionID string) ([]PropertyDefinition, error)
}

type PropertyRepositoryImpl struct {
	DB *gorm.DB
}

func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &PropertyRepositoryImpl{DB: db.DB}
}

func (r *PropertyRepositoryImpl) Create(ctx context.Context, prop *PropertyDefinition) error {
	return r.DB.WithContext(ctx).Create(prop).Error
}

func (r *PropertyRepositoryImpl) FindByID(ctx context.Context, id string) (*PropertyDefinition, error) {
	var prop PropertyDefinition
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		First(&prop, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("property definition %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

func (r *PropertyRepositoryImpl) NameExistsInDefinition(ctx context.Context, definitionID, name, excludeID string) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&PropertyDefinition{}).
		Scopes(models.NotDeleted).
		Where("entity_definition_id = ? AND lower(name) = ?", definitionID, strings.ToLower(name))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PropertyRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]PropertyDefinition, int64, error) {
	query := r.DB.WithContext(ctx).Model(&PropertyDefinition{}).Scopes(models.NotDeleted)

	if filter.EntityDefinitionID != "" {
		query = query.Where("entity_definition_id = ?", filter.EntityDefinitionID)
	}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(display_name) LIKE ?", needle, needle)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var props []PropertyDefinition
	err := query.Order("sort_order ASC, name ASC").Scopes(models.Paginate(page)).Find(&props).Error
	if err != nil {
		return nil, 0, err
	}
	return props, total, nil
}

func (r *PropertyRepositoryImpl) Update(ctx context.Context, prop *PropertyDefinition, expectedVersion int64) error {
	res := r.DB.WithContext(ctx).Model(&PropertyDefinition{}).
		Where("id = ? AND version = ? AND is_deleted = ?", prop.ID, expectedVersion, false).
		Select(propertyColumns).
		Updates(prop)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.WithContext(ctx).Model(&PropertyDefinition{}).
			Scopes(models.NotDeleted).
			Where("id = ?", prop.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("property definition %s not found", prop.ID)
		}
		return apperr.Conflict("property definition %s was modified by another caller", prop.ID)
	}
	return nil
}

// SoftDelete also tombstones the property's stored values so they stop
// appearing on instances.
func (r *PropertyRepositoryImpl) SoftDelete(ctx context.Context, prop *PropertyDefinition) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&PropertyDefinition{}).
			Where("id = ? AND is_deleted = ?", prop.ID, false).
			Select("is_deleted", "deleted_at", "deleted_by", "updated_at", "updated_by", "version", "row_stamp").
			Updates(prop)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("property definition %s not found", prop.ID)
		}

		return tx.Table("property_values").
			Where("property_definition_id = ? AND is_deleted = ?", prop.ID, false).
			Updates(map[string]any{
				"is_deleted": true,
				"deleted_at": prop.DeletedAt,
				"deleted_by": prop.DeletedBy,
				"updated_at": prop.UpdatedAt,
				"updated_by": prop.UpdatedBy,
			}).Error
	})
}

func (r *PropertyRepositoryImpl) ListByDefinition(ctx context.Context, definitionID string) ([]PropertyDefinition, error) {
	var props []PropertyDefinition
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("entity_definition_id = ?", definitionID).
		Order("sort_order ASC, name ASC").
		Find(&props).Error
	return props, err
}
