package audit

import (
	"time"

	"go-iam/internal/common/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is append-only. Rows are never updated or deleted, so it does
// not embed the shared auditable base.
type AuditLog struct {
	ID            string             `json:"id" gorm:"type:uuid;primaryKey"`
	EntityType    string             `json:"entityType" gorm:"index:idx_audit_entity"`
	EntityID      string             `json:"entityId" gorm:"index:idx_audit_entity"`
	Action        models.AuditAction `json:"action" gorm:"index"`
	UserID        string             `json:"userId" gorm:"index"`
	CorrelationID string             `json:"correlationId" gorm:"index"`
	OldValues     datatypes.JSON     `json:"oldValues,omitempty"`
	NewValues     datatypes.JSON     `json:"newValues,omitempty"`
	Justification string             `json:"justification,omitempty"`
	IPAddress     string             `json:"ipAddress,omitempty"`
	Path          string             `json:"path,omitempty"`
	Method        string             `json:"method,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" gorm:"index"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// SearchFilter is the multi-predicate audit query. Zero values are
// ignored; populated predicates combine with AND.
type SearchFilter struct {
	EntityType    string
	EntityID      string
	Action        models.AuditAction
	UserID        string
	CorrelationID string
	From          *time.Time
	To            *time.Time
}
