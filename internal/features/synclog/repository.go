package synclog

import (
	"context"
	"errors"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

type SyncLogRepository interface {
	Create(ctx context.Context, log *SyncLog) error
	FindByID(ctx context.Context, id string) (*SyncLog, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]SyncLog, int64, error)
	Complete(ctx context.Context, log *SyncLog) error
}

type SyncLogRepositoryImpl struct {
	DB *gorm.DB
}

func NewSyncLogRepository(db *database.Database) SyncLogRepository {
	return &SyncLogRepositoryImpl{DB: db.DB}
}

func (r *SyncLogRepositoryImpl) Create(ctx context.Context, log *SyncLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *SyncLogRepositoryImpl) FindByID(ctx context.Context, id string) (*SyncLog, error) {
	var log SyncLog
	err := r.DB.WithContext(ctx).First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("sync log %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *SyncLogRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]SyncLog, int64, error) {
	query := r.DB.WithContext(ctx).Model(&SyncLog{})

	if filter.IntegrationSystemID != "" {
		query = query.Where("integration_system_id = ?", filter.IntegrationSystemID)
	}
	if filter.EntityDefinitionID != "" {
		query = query.Where("entity_definition_id = ?", filter.EntityDefinitionID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("started_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("started_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []SyncLog
	err := query.Order("started_at DESC").Scopes(models.Paginate(page)).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Complete finalizes a run. The status guard keeps a finished run from
// being completed twice.
func (r *SyncLogRepositoryImpl) Complete(ctx context.Context, log *SyncLog) error {
	res := r.DB.WithContext(ctx).Model(&SyncLog{}).
		Where("id = ? AND status = ?", log.ID, models.SyncStatusInProgress).
		Select("status", "completed_at", "records_processed", "records_created",
			"records_updated", "records_failed", "error_message").
		Updates(log)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.WithContext(ctx).Model(&SyncLog{}).
			Where("id = ?", log.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("sync log %s not found", log.ID)
		}
		return apperr.Conflict("sync log %s is already completed", log.ID)
	}
	return nil
}
