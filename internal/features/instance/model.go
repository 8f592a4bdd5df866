package instance

import (
	"encoding/json"
	"time"

	"go-iam/internal/common/models"
	"go-iam/internal/features/property"

	"gorm.io/datatypes"
)

const (
	EntityType      = "EntityInstance"
	ValueEntityType = "PropertyValue"
)

// EntityInstance is one concrete synchronized record, unique per
// (EntityDefinitionID, ExternalID). It owns its property values and
// participates in access assignments as user or role.
type EntityInstance struct {
	models.Auditable

	EntityDefinitionID string            `json:"entityDefinitionId" gorm:"type:uuid;index"`
	ExternalID         string            `json:"externalId" gorm:"index"`
	DisplayName        string            `json:"displayName" gorm:"index"`
	IsActive           bool              `json:"isActive"`
	SyncStatus         models.SyncStatus `json:"syncStatus"`
	LastSyncedAt       *time.Time        `json:"lastSyncedAt,omitempty"`
	RawData            datatypes.JSON    `json:"rawData,omitempty"`
}

// PropertyValue holds one string-encoded field value, unique per
// (EntityInstanceID, PropertyDefinitionID), interpreted per the property
// definition's data type.
type PropertyValue struct {
	models.Auditable

	EntityInstanceID     string     `json:"entityInstanceId" gorm:"type:uuid;index"`
	PropertyDefinitionID string     `json:"propertyDefinitionId" gorm:"type:uuid;index"`
	Value                string     `json:"value"`
	DisplayValue         string     `json:"displayValue,omitempty"`
	IsDefault            bool       `json:"isDefault"`
	EffectiveFrom        *time.Time `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time `json:"effectiveTo,omitempty"`
}

// PropertyValueInput is the client-supplied shape. A nil ID means insert
// new; an ID must match a stored value of the same instance. Values
// stored but absent from an update request are removed — callers resend
// the full set.
type PropertyValueInput struct {
	ID                   *string    `json:"id"`
	PropertyDefinitionID string     `json:"propertyDefinitionId" validate:"required,uuid4"`
	Value                string     `json:"value"`
	DisplayValue         string     `json:"displayValue"`
	IsDefault            bool       `json:"isDefault"`
	EffectiveFrom        *time.Time `json:"effectiveFrom"`
	EffectiveTo          *time.Time `json:"effectiveTo"`
}

type CreateInstanceRequest struct {
	EntityDefinitionID string               `json:"entityDefinitionId" validate:"required,uuid4"`
	ExternalID         string               `json:"externalId" validate:"required"`
	DisplayName        string               `json:"displayName" validate:"required"`
	IsActive           *bool                `json:"isActive"`
	RawData            json.RawMessage      `json:"rawData"`
	PropertyValues     []PropertyValueInput `json:"propertyValues" validate:"dive"`
}

type UpdateInstanceRequest struct {
	ExternalID     string               `json:"externalId" validate:"required"`
	DisplayName    string               `json:"displayName" validate:"required"`
	IsActive       *bool                `json:"isActive"`
	RawData        json.RawMessage      `json:"rawData"`
	PropertyValues []PropertyValueInput `json:"propertyValues" validate:"dive"`
	Version        int64                `json:"version" validate:"required"`
}

// PropertyValueDTO projects a value together with its definition's name
// and data type so clients can interpret it.
type PropertyValueDTO struct {
	PropertyValue
	PropertyDefinitionName string            `json:"propertyDefinitionName"`
	PropertyDataType       property.DataType `json:"propertyDataType"`
}

type InstanceDTO struct {
	EntityInstance
	PropertyValues []PropertyValueDTO `json:"propertyValues"`
}

type ListFilter struct {
	Search             string
	EntityDefinitionID string
	IsActive           *bool
	SyncStatus         models.SyncStatus
}
