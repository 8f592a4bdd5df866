package definition

import (
	"encoding/json"

	"go-iam/internal/common/models"

	"gorm.io/datatypes"
)

const EntityType = "EntityDefinition"

// EntityDefinition is the schema for one record type within an
// integration system (e.g. "User" in the HR system). Its name is unique
// per system, not globally.
type EntityDefinition struct {
	models.Auditable

	IntegrationSystemID string         `json:"integrationSystemId" gorm:"type:uuid;index"`
	Name                string         `json:"name" gorm:"index"`
	DisplayName         string         `json:"displayName"`
	Description         string         `json:"description,omitempty"`
	TableName           string         `json:"tableName,omitempty"`
	PrimaryKeyField     string         `json:"primaryKeyField,omitempty"`
	IsActive            bool           `json:"isActive"`
	SortOrder           int            `json:"sortOrder"`
	Metadata            datatypes.JSON `json:"metadata,omitempty"`
}

type CreateDefinitionRequest struct {
	IntegrationSystemID string          `json:"integrationSystemId" validate:"required,uuid4"`
	Name                string          `json:"name" validate:"required"`
	DisplayName         string          `json:"displayName" validate:"required"`
	Description         string          `json:"description"`
	TableName           string          `json:"tableName"`
	PrimaryKeyField     string          `json:"primaryKeyField"`
	IsActive            *bool           `json:"isActive"`
	SortOrder           int             `json:"sortOrder"`
	Metadata            json.RawMessage `json:"metadata"`
}

type UpdateDefinitionRequest struct {
	Name            string          `json:"name" validate:"required"`
	DisplayName     string          `json:"displayName" validate:"required"`
	Description     string          `json:"description"`
	TableName       string          `json:"tableName"`
	PrimaryKeyField string          `json:"primaryKeyField"`
	IsActive        *bool           `json:"isActive"`
	SortOrder       int             `json:"sortOrder"`
	Metadata        json.RawMessage `json:"metadata"`
	Version         int64           `json:"version" validate:"required"`
}

type ListFilter struct {
	IntegrationSystemID string
	Search              string
	IsActive            *bool
}
