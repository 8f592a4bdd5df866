package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContextKey string

const (
	ActorIDKey       ContextKey = "actor_id"
	CorrelationIDKey ContextKey = "correlation_id"
	RequestMetaKey   ContextKey = "request_meta"
)

// SystemActor is the audit identity used when no authenticated caller exists.
const SystemActor = "system"

// RequestMeta carries the HTTP context captured by middleware for audit rows.
type RequestMeta struct {
	IPAddress string
	Path      string
	Method    string
}

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionSync   AuditAction = "SYNC"
	AuditActionExport AuditAction = "EXPORT"
)

// SyncStatus is shared by entity instances and sync run logs.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "Pending"
	SyncStatusInProgress SyncStatus = "InProgress"
	SyncStatusSuccess    SyncStatus = "Success"
	SyncStatusFailed     SyncStatus = "Failed"
	SyncStatusCancelled  SyncStatus = "Cancelled"
)

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusInProgress, SyncStatusSuccess, SyncStatusFailed, SyncStatusCancelled:
		return true
	}
	return false
}

// Auditable is embedded by every persisted entity. Version and RowStamp
// together form the optimistic concurrency token: Version increments on
// each write, RowStamp is regenerated so a stale reader can never match.
type Auditable struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy string     `json:"createdBy"`
	UpdatedAt time.Time  `json:"updatedAt"`
	UpdatedBy string     `json:"updatedBy"`
	IsDeleted bool       `json:"isDeleted" gorm:"index"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy string     `json:"deletedBy,omitempty"`
	Version   int64      `json:"version"`
	RowStamp  string     `json:"rowStamp" gorm:"type:uuid"`
}

func (a *Auditable) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.RowStamp == "" {
		a.RowStamp = uuid.NewString()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	return nil
}

// StampCreate fills server-assigned audit fields on insert. Services call
// the stamping helpers explicitly on every write path instead of relying
// on ambient ORM change tracking.
func (a *Auditable) StampCreate(actor string) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.CreatedBy = actor
	a.UpdatedAt = now
	a.UpdatedBy = actor
	a.Version = 1
	a.RowStamp = uuid.NewString()
}

// StampUpdate advances the concurrency token.
func (a *Auditable) StampUpdate(actor string) {
	a.UpdatedAt = time.Now().UTC()
	a.UpdatedBy = actor
	a.Version++
	a.RowStamp = uuid.NewString()
}

// StampDelete marks the soft-delete transition. There is no restore path.
func (a *Auditable) StampDelete(actor string) {
	now := time.Now().UTC()
	a.IsDeleted = true
	a.DeletedAt = &now
	a.DeletedBy = actor
	a.StampUpdate(actor)
}

// Actor returns the caller identity for audit fields, falling back to the
// fixed system placeholder.
func Actor(ctx context.Context) string {
	if id, ok := ctx.Value(ActorIDKey).(string); ok && id != "" {
		return id
	}
	return SystemActor
}

// CorrelationID returns the request correlation token, if any.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// Meta returns the HTTP request context captured by middleware, if any.
func Meta(ctx context.Context) RequestMeta {
	if m, ok := ctx.Value(RequestMetaKey).(RequestMeta); ok {
		return m
	}
	return RequestMeta{}
}
