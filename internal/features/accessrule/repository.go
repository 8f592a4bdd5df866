package accessrule

import (
	"context"
	"errors"
	"strings"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

var ruleColumns = []string{
	"name", "description", "integration_system_id", "trigger_type", "action_type",
	"condition", "action_configuration", "is_active", "priority",
	"updated_at", "updated_by", "version", "row_stamp",
}

type RuleRepository interface {
	Create(ctx context.Context, rule *AccessRule) error
	FindByID(ctx context.Context, id string) (*AccessRule, error)
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]AccessRule, int64, error)
	Update(ctx context.Context, rule *AccessRule, expectedVersion int64) error
	SoftDelete(ctx context.Context, rule *AccessRule) error
}

type RuleRepositoryImpl struct {
	DB *gorm.DB
}

func NewRuleRepository(db *database.Database) RuleRepository {
	return &RuleRepositoryImpl{DB: db.DB}
}

func (r *RuleRepositoryImpl) Create(ctx context.Context, rule *AccessRule) error {
	return r.DB.WithContext(ctx).Create(rule).Error
}

func (r *RuleRepositoryImpl) FindByID(ctx context.Context, id string) (*AccessRule, error) {
	var rule AccessRule
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		First(&rule, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("access rule %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepositoryImpl) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&AccessRule{}).
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

func (r *RuleRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]AccessRule, int64, error) {
	query := r.DB.WithContext(ctx).Model(&AccessRule{}).Scopes(models.NotDeleted)

	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(description) LIKE ?", needle, needle)
	}
	if filter.IntegrationSystemID != "" {
		query = query.Where("integration_system_id = ?", filter.IntegrationSystemID)
	}
	if filter.TriggerType != "" {
		query = query.Where("trigger_type = ?", filter.TriggerType)
	}
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rules []AccessRule
	err := query.Order("priority ASC, name ASC").Scopes(models.Paginate(page)).Find(&rules).Error
	if err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

func (r *RuleRepositoryImpl) Update(ctx context.Context, rule *AccessRule, expectedVersion int64) error {
	res := r.DB.WithContext(ctx).Model(&AccessRule{}).
		Where("id = ? AND version = ? AND is_deleted = ?", rule.ID, expectedVersion, false).
		Select(ruleColumns).
		Updates(rule)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.WithContext(ctx).Model(&AccessRule{}).
			Scopes(models.NotDeleted).
			Where("id = ?", rule.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("access rule %s not found", rule.ID)
		}
		return apperr.Conflict("access rule %s was modified by another caller", rule.ID)
	}
	return nil
}

func (r *RuleRepositoryImpl) SoftDelete(ctx context.Context, rule *AccessRule) error {
	res := r.DB.WithContext(ctx).Model(&AccessRule{}).
		Where("id = ? AND is_deleted = ?", rule.ID, false).
		Select("is_deleted", "deleted_at", "deleted_by", "updated_at", "updated_by", "version", "row_stamp").
		Updates(rule)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("access rule %s not found", rule.ID)
	}
	return nil
}
