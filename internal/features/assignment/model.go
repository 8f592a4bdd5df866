package assignment

import (
	"time"

	"go-iam/internal/common/models"
)

const EntityType = "AccessAssignment"

type AssignmentType string

const (
	AssignmentDirect    AssignmentType = "Direct"
	AssignmentInherited AssignmentType = "Inherited"
	AssignmentAutomatic AssignmentType = "Automatic"
	AssignmentTemporary AssignmentType = "Temporary"
)

func (t AssignmentType) IsValid() bool {
	switch t {
	case AssignmentDirect, AssignmentInherited, AssignmentAutomatic, AssignmentTemporary:
		return true
	}
	return false
}

// AccessAssignment grants a user instance a role instance on a target
// system. At most one live assignment exists per (user, role, target)
// triple.
type AccessAssignment struct {
	models.Auditable

	UserInstanceID string         `json:"userInstanceId" gorm:"type:uuid;index:idx_assignment_triple"`
	RoleInstanceID string         `json:"roleInstanceId" gorm:"type:uuid;index:idx_assignment_triple"`
	TargetSystemID string         `json:"targetSystemId" gorm:"type:uuid;index:idx_assignment_triple"`
	AssignmentType AssignmentType `json:"assignmentType"`
	EffectiveFrom  *time.Time     `json:"effectiveFrom,omitempty"`
	EffectiveTo    *time.Time     `json:"effectiveTo,omitempty"`
	Justification  string         `json:"justification,omitempty"`
	IsActive       bool           `json:"isActive"`
}

type CreateAssignmentRequest struct {
	UserInstanceID string         `json:"userInstanceId" validate:"required,uuid4"`
	RoleInstanceID string         `json:"roleInstanceId" validate:"required,uuid4"`
	TargetSystemID string         `json:"targetSystemId" validate:"required,uuid4"`
	AssignmentType AssignmentType `json:"assignmentType" validate:"required"`
	EffectiveFrom  *time.Time     `json:"effectiveFrom"`
	EffectiveTo    *time.Time     `json:"effectiveTo"`
	Justification  string         `json:"justification"`
	IsActive       *bool          `json:"isActive"`
}

type UpdateAssignmentRequest struct {
	AssignmentType AssignmentType `json:"assignmentType" validate:"required"`
	EffectiveFrom  *time.Time     `json:"effectiveFrom"`
	EffectiveTo    *time.Time     `json:"effectiveTo"`
	Justification  string         `json:"justification"`
	IsActive       *bool          `json:"isActive"`
	Version        int64          `json:"version" validate:"required"`
}

type ListFilter struct {
	UserInstanceID string
	RoleInstanceID string
	TargetSystemID string
	AssignmentType AssignmentType
	IsActive       *bool
}
