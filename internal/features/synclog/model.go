package synclog

import (
	"time"

	"go-iam/internal/common/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const EntityType = "SyncLog"

// SyncLog tracks one synchronization run against an integration system.
// Runs are operational history: they are never soft-deleted or versioned.
type SyncLog struct {
	ID                  string            `json:"id" gorm:"type:uuid;primaryKey"`
	IntegrationSystemID string            `json:"integrationSystemId" gorm:"type:uuid;index"`
	EntityDefinitionID  string            `json:"entityDefinitionId,omitempty" gorm:"type:uuid;index"`
	Operation           string            `json:"operation"`
	Status              models.SyncStatus `json:"status"`
	StartedAt           time.Time         `json:"startedAt"`
	CompletedAt         *time.Time        `json:"completedAt,omitempty"`
	RecordsProcessed    int               `json:"recordsProcessed"`
	RecordsCreated      int               `json:"recordsCreated"`
	RecordsUpdated      int               `json:"recordsUpdated"`
	RecordsFailed       int               `json:"recordsFailed"`
	ErrorMessage        string            `json:"errorMessage,omitempty"`
	TriggeredBy         string            `json:"triggeredBy"`
	CorrelationID       string            `json:"correlationId,omitempty" gorm:"index"`
}

func (l *SyncLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type StartSyncRequest struct {
	IntegrationSystemID string `json:"integrationSystemId" validate:"required,uuid4"`
	EntityDefinitionID  string `json:"entityDefinitionId" validate:"omitempty,uuid4"`
	Operation           string `json:"operation"`
}

type CompleteSyncRequest struct {
	Status           models.SyncStatus `json:"status" validate:"required"`
	RecordsProcessed int               `json:"recordsProcessed" validate:"gte=0"`
	RecordsCreated   int               `json:"recordsCreated" validate:"gte=0"`
	RecordsUpdated   int               `json:"recordsUpdated" validate:"gte=0"`
	RecordsFailed    int               `json:"recordsFailed" validate:"gte=0"`
	ErrorMessage     string            `json:"errorMessage"`
}

type ListFilter struct {
	IntegrationSystemID string
	EntityDefinitionID  string
	Status              models.SyncStatus
	From                *time.Time
	To                  *time.Time
}
