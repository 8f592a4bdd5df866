package assignment

import (
	"context"
	"errors"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"gorm.io/gorm"
)

var assignmentColumns = []string{
	"assignment_type", "effective_from", "effective_to", "justification", "is_active",
	"updated_at", "updated_by", "version", "row_stamp",
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *AccessAssignment) error
	FindByID(ctx context.Context, id string) (*AccessAssignment, error)
	TripleExists(ctx context.Context, userInstanceID, roleInstanceID, targetSystemID, excludeID string) (bool, error)
	List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]AccessAssignment, int64, error)
	Update(ctx context.Context, assignment *AccessAssignment, expectedVersion int64) error
	SoftDelete(ctx context.Context, assignment *AccessAssignment) error

	// InstanceReferenced reports whether any live assignment names the
	// instance as user or role. Referenced instances cannot be deleted.
	InstanceReferenced(ctx context.Context, instanceID string) (bool, error)
}

type AssignmentRepositoryImpl struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *database.Database) AssignmentRepository {
	return &AssignmentRepositoryImpl{DB: db.DB}
}

func (r *AssignmentRepositoryImpl) Create(ctx context.Context, assignment *AccessAssignment) error {
	return r.DB.WithContext(ctx).Create(assignment).Error
}

func (r *AssignmentRepositoryImpl) FindByID(ctx context.Context, id string) (*AccessAssignment, error) {
	var assignment AccessAssignment
	err := r.DB.WithContext(ctx).
		Scopes(models.NotDeleted).
		First(&assignment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("access assignment %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepositoryImpl) TripleExists(ctx context.Context, userInstanceID, roleInstanceID, targetSystemID, excludeID string) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&AccessAssignment{}).
		Scopes(models.NotDeleted).
		Where("user_instance_id = ? AND role_instance_id = ? AND target_system_id = ?",
			userInstanceID, roleInstanceID, targetSystemID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AssignmentRepositoryImpl) List(ctx context.Context, filter ListFilter, page models.PageRequest) ([]AccessAssignment, int64, error) {
	query := r.DB.WithContext(ctx).Model(&AccessAssignment{}).Scopes(models.NotDeleted)

	if filter.UserInstanceID != "" {
		query = query.Where("user_instance_id = ?", filter.UserInstanceID)
	}
	if filter.RoleInstanceID != "" {
		query = query.Where("role_instance_id = ?", filter.RoleInstanceID)
	}
	if filter.TargetSystemID != "" {
		query = query.Where("target_system_id = ?", filter.TargetSystemID)
	}
	if filter.AssignmentType != "" {
		query = query.Where("assignment_type = ?", filter.AssignmentType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assignments []AccessAssignment
	err := query.Order("created_at DESC").Scopes(models.Paginate(page)).Find(&assignments).Error
	if err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

func (r *AssignmentRepositoryImpl) Update(ctx context.Context, assignment *AccessAssignment, expectedVersion int64) error {
	res := r.DB.WithContext(ctx).Model(&AccessAssignment{}).
		Where("id = ? AND version = ? AND is_deleted = ?", assignment.ID, expectedVersion, false).
		Select(assignmentColumns).
		Updates(assignment)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.WithContext(ctx).Model(&AccessAssignment{}).
			Scopes(models.NotDeleted).
			Where("id = ?", assignment.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("access assignment %s not found", assignment.ID)
		}
		return apperr.Conflict("access assignment %s was modified by another caller", assignment.ID)
	}
	return nil
}

func (r *AssignmentRepositoryImpl) SoftDelete(ctx context.Context, assignment *AccessAssignment) error {
	res := r.DB.WithContext(ctx).Model(&AccessAssignment{}).
		Where("id = ? AND is_deleted = ?", assignment.ID, false).
		Select("is_deleted", "deleted_at", "deleted_by", "updated_at", "updated_by", "version", "row_stamp").
		Updates(assignment)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("access assignment %s not found", assignment.ID)
	}
	return nil
}

func (r *AssignmentRepositoryImpl) InstanceReferenced(ctx context.Context, instanceID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&AccessAssignment{}).
		Scopes(models.NotDeleted).
		Where("user_instance_id = ? OR role_instance_id = ?", instanceID, instanceID).
		Count(&count).Error
	return count > 0, err
}
