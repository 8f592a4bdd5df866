package accessrule

import (
	"encoding/json"
	"time"

	"go-iam/internal/common/models"

	"gorm.io/datatypes"
)

const EntityType = "AccessRule"

// TriggerType says when a rule is meant to fire. Rules are stored
// metadata; evaluation happens in the consuming provisioning engine.
type TriggerType string

const (
	TriggerOnCreate  TriggerType = "OnCreate"
	TriggerOnUpdate  TriggerType = "OnUpdate"
	TriggerOnDelete  TriggerType = "OnDelete"
	TriggerOnSync    TriggerType = "OnSync"
	TriggerManual    TriggerType = "Manual"
	TriggerScheduled TriggerType = "Scheduled"
)

func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerOnCreate, TriggerOnUpdate, TriggerOnDelete, TriggerOnSync, TriggerManual, TriggerScheduled:
		return true
	}
	return false
}

type ActionType string

const (
	ActionAssignRole   ActionType = "AssignRole"
	ActionRevokeRole   ActionType = "RevokeRole"
	ActionNotifyAdmin  ActionType = "NotifyAdmin"
	ActionSyncToTarget ActionType = "SyncToTarget"
	ActionCustom       ActionType = "Custom"
)

func (a ActionType) IsValid() bool {
	switch a {
	case ActionAssignRole, ActionRevokeRole, ActionNotifyAdmin, ActionSyncToTarget, ActionCustom:
		return true
	}
	return false
}

// AccessRule describes a provisioning rule: a trigger, a condition over
// instance data, and the action to take. The condition payload is opaque
// here.
type AccessRule struct {
	models.Auditable

	Name                string         `json:"name" gorm:"index"`
	Description         string         `json:"description,omitempty"`
	IntegrationSystemID string         `json:"integrationSystemId,omitempty" gorm:"type:uuid;index"`
	TriggerType         TriggerType    `json:"triggerType"`
	ActionType          ActionType     `json:"actionType"`
	Condition           datatypes.JSON `json:"condition,omitempty"`
	ActionConfiguration datatypes.JSON `json:"actionConfiguration,omitempty"`
	IsActive            bool           `json:"isActive"`
	Priority            int            `json:"priority"`

	// Filled by the consuming provisioning engine, never by clients.
	LastExecutedAt      *time.Time `json:"lastExecutedAt,omitempty"`
	LastExecutionResult string     `json:"lastExecutionResult,omitempty"`
}

type CreateRuleRequest struct {
	Name                string          `json:"name" validate:"required"`
	Description         string          `json:"description"`
	IntegrationSystemID string          `json:"integrationSystemId" validate:"omitempty,uuid4"`
	TriggerType         TriggerType     `json:"triggerType" validate:"required"`
	ActionType          ActionType      `json:"actionType" validate:"required"`
	Condition           json.RawMessage `json:"condition"`
	ActionConfiguration json.RawMessage `json:"actionConfiguration"`
	IsActive            *bool           `json:"isActive"`
	Priority            int             `json:"priority"`
}

type UpdateRuleRequest struct {
	Name                string          `json:"name" validate:"required"`
	Description         string          `json:"description"`
	IntegrationSystemID string          `json:"integrationSystemId" validate:"omitempty,uuid4"`
	TriggerType         TriggerType     `json:"triggerType" validate:"required"`
	ActionType          ActionType      `json:"actionType" validate:"required"`
	Condition           json.RawMessage `json:"condition"`
	ActionConfiguration json.RawMessage `json:"actionConfiguration"`
	IsActive            *bool           `json:"isActive"`
	Priority            int             `json:"priority"`
	Version             int64           `json:"version" validate:"required"`
}

type ListFilter struct {
	Search              string
	IntegrationSystemID string
	TriggerType         TriggerType
	ActionType          ActionType
	IsActive            *bool
}
