package property

import (
	"encoding/json"

	"go-iam/internal/common/models"

	"gorm.io/datatypes"
)

const EntityType = "PropertyDefinition"

type DataType string

const (
	DataTypeString   DataType = "String"
	DataTypeInteger  DataType = "Integer"
	DataTypeDecimal  DataType = "Decimal"
	DataTypeBoolean  DataType = "Boolean"
	DataTypeDateTime DataType = "DateTime"
	DataTypeDate     DataType = "Date"
	DataTypeTime     DataType = "Time"
	DataTypeEmail    DataType = "Email"
	DataTypePhone    DataType = "Phone"
	DataTypeUrl      DataType = "Url"
	DataTypeList     DataType = "List"
	DataTypeJson     DataType = "Json"
)

func (d DataType) IsValid() bool {
	switch d {
	case DataTypeString, DataTypeInteger, DataTypeDecimal, DataTypeBoolean,
		DataTypeDateTime, DataTypeDate, DataTypeTime, DataTypeEmail,
		DataTypePhone, DataTypeUrl, DataTypeList, DataTypeJson:
		return true
	}
	return false
}

// PropertyDefinition is the schema for one field of an entity definition
// (e.g. "Email" on "User"). Values are stored string-encoded and
// interpreted per DataType.
type PropertyDefinition struct {
	models.Auditable

	EntityDefinitionID string         `json:"entityDefinitionId" gorm:"type:uuid;index"`
	Name               string         `json:"name" gorm:"index"`
	DisplayName        string         `json:"displayName"`
	Description        string         `json:"description,omitempty"`
	DataType           DataType       `json:"dataType"`
	SourceField        string         `json:"sourceField,omitempty"`
	IsRequired         bool           `json:"isRequired"`
	IsUnique           bool           `json:"isUnique"`
	IsSearchable       bool           `json:"isSearchable"`
	IsDisplayed        bool           `json:"isDisplayed"`
	IsEditable         bool           `json:"isEditable"`
	SortOrder          int            `json:"sortOrder"`
	DefaultValue       string         `json:"defaultValue,omitempty"`
	ValidationRules    datatypes.JSON `json:"validationRules,omitempty"`
	UIMetadata         datatypes.JSON `json:"uiMetadata,omitempty"`
}

type CreatePropertyRequest struct {
	EntityDefinitionID string          `json:"entityDefinitionId" validate:"required,uuid4"`
	Name               string          `json:"name" validate:"required"`
	DisplayName        string          `json:"displayName" validate:"required"`
	Description        string          `json:"description"`
	DataType           DataType        `json:"dataType" validate:"required"`
	SourceField        string          `json:"sourceField"`
	IsRequired         bool            `json:"isRequired"`
	IsUnique           bool            `json:"isUnique"`
	IsSearchable       bool            `json:"isSearchable"`
	IsDisplayed        *bool           `json:"isDisplayed"`
	IsEditable         *bool           `json:"isEditable"`
	SortOrder          int             `json:"sortOrder"`
	DefaultValue       string          `json:"defaultValue"`
	ValidationRules    json.RawMessage `json:"validationRules"`
	UIMetadata         json.RawMessage `json:"uiMetadata"`
}

type UpdatePropertyRequest struct {
	Name            string          `json:"name" validate:"required"`
	DisplayName     string          `json:"displayName" validate:"required"`
	Description     string          `json:"description"`
	DataType        DataType        `json:"dataType" validate:"required"`
	SourceField     string          `json:"sourceField"`
	IsRequired      bool            `json:"isRequired"`
	IsUnique        bool            `json:"isUnique"`
	IsSearchable    bool            `json:"isSearchable"`
	IsDisplayed     *bool           `json:"isDisplayed"`
	IsEditable      *bool           `json:"isEditable"`
	SortOrder       int             `json:"sortOrder"`
	DefaultValue    string          `json:"defaultValue"`
	ValidationRules json.RawMessage `json:"validationRules"`
	UIMetadata      json.RawMessage `json:"uiMetadata"`
	Version         int64           `json:"version" validate:"required"`
}

type ListFilter struct {
	EntityDefinitionID string
	Search             string
}
