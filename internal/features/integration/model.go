package integration

import (
	"encoding/json"
	"time"

	"go-iam/internal/common/models"

	"gorm.io/datatypes"
)

// EntityType tag used in audit rows.
const EntityType = "IntegrationSystem"

type AuthenticationType string

const (
	AuthTypeNone        AuthenticationType = "None"
	AuthTypeBasic       AuthenticationType = "Basic"
	AuthTypeOAuth2      AuthenticationType = "OAuth2"
	AuthTypeApiKey      AuthenticationType = "ApiKey"
	AuthTypeCertificate AuthenticationType = "Certificate"
)

func (a AuthenticationType) IsValid() bool {
	switch a {
	case AuthTypeNone, AuthTypeBasic, AuthTypeOAuth2, AuthTypeApiKey, AuthTypeCertificate:
		return true
	}
	return false
}

// IntegrationSystem describes one external source of identity data
// (HR, EMR, CRM). It owns entity definitions, access rules, sync logs
// and is the target of access assignments.
type IntegrationSystem struct {
	models.Auditable

	Name               string             `json:"name" gorm:"index"`
	DisplayName        string             `json:"displayName"`
	Description        string             `json:"description,omitempty"`
	SystemType         string             `json:"systemType"`
	ConnectionString   string             `json:"connectionString,omitempty"`
	AuthenticationType AuthenticationType `json:"authenticationType"`
	IsActive           bool               `json:"isActive"`
	LastSyncStatus     models.SyncStatus  `json:"lastSyncStatus,omitempty"`
	LastSyncedAt       *time.Time         `json:"lastSyncedAt,omitempty"`
	Configuration      datatypes.JSON     `json:"configuration,omitempty"`
}

type CreateSystemRequest struct {
	Name               string             `json:"name" validate:"required"`
	DisplayName        string             `json:"displayName" validate:"required"`
	Description        string             `json:"description"`
	SystemType         string             `json:"systemType" validate:"required"`
	ConnectionString   string             `json:"connectionString"`
	AuthenticationType AuthenticationType `json:"authenticationType"`
	IsActive           *bool              `json:"isActive"`
	Configuration      json.RawMessage    `json:"configuration"`
}

// UpdateSystemRequest carries only business fields plus the caller's
// last-seen version; identity and audit fields are server-assigned.
type UpdateSystemRequest struct {
	Name               string             `json:"name" validate:"required"`
	DisplayName        string             `json:"displayName" validate:"required"`
	Description        string             `json:"description"`
	SystemType         string             `json:"systemType" validate:"required"`
	ConnectionString   string             `json:"connectionString"`
	AuthenticationType AuthenticationType `json:"authenticationType"`
	IsActive           *bool              `json:"isActive"`
	Configuration      json.RawMessage    `json:"configuration"`
	Version            int64              `json:"version" validate:"required"`
}

type ListFilter struct {
	Search     string
	SystemType string
	IsActive   *bool
}
