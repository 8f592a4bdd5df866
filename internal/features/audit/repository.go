package audit

import (
	"context"

	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, log *AuditLog) error
	List(ctx context.Context, filter SearchFilter, page models.PageRequest) ([]AuditLog, int64, error)
}

type AuditRepositoryImpl struct {
	DB *gorm.DB
}

func NewAuditRepository(db *database.Database) AuditRepository {
	return &AuditRepositoryImpl{DB: db.DB}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, log *AuditLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *AuditRepositoryImpl) List(ctx context.Context, filter SearchFilter, page models.PageRequest) ([]AuditLog, int64, error) {
	query := r.DB.WithContext(ctx).Model(&AuditLog{})

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CorrelationID != "" {
		query = query.Where("correlation_id = ?", filter.CorrelationID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []AuditLog
	err := query.
		Order("created_at DESC").
		Scopes(models.Paginate(page)).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
