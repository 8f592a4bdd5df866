package audit

import (
	"context"
	"encoding/json"
	"time"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
)

// Entry is what mutating services hand to the audit trail. Actor,
// correlation ID and HTTP context come from the request context.
type Entry struct {
	EntityType    string
	EntityID      string
	Action        models.AuditAction
	OldValues     any
	NewValues     any
	Justification string
}

// Recorder is the narrow interface other features depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type AuditService interface {
	Recorder
	ListByEntity(ctx context.Context, entityType, entityID string, page models.PageRequest) (models.PagedResult[AuditLog], error)
	ListByUser(ctx context.Context, userID string, from, to *time.Time, page models.PageRequest) (models.PagedResult[AuditLog], error)
	Search(ctx context.Context, filter SearchFilter, page models.PageRequest) (models.PagedResult[AuditLog], error)
}

type AuditServiceImpl struct {
	Repo AuditRepository
}

func NewAuditService(repo AuditRepository) AuditService {
	return &AuditServiceImpl{Repo: repo}
}

// Record appends one immutable row. A failed write propagates to the
// caller: a silently lost audit record is a compliance gap, so the
// surrounding operation must fail with it.
func (s *AuditServiceImpl) Record(ctx context.Context, entry Entry) error {
	meta := models.Meta(ctx)

	log := &AuditLog{
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		Action:        entry.Action,
		UserID:        models.Actor(ctx),
		CorrelationID: models.CorrelationID(ctx),
		Justification: entry.Justification,
		IPAddress:     meta.IPAddress,
		Path:          meta.Path,
		Method:        meta.Method,
		CreatedAt:     time.Now().UTC(),
	}

	if entry.OldValues != nil {
		raw, err := json.Marshal(entry.OldValues)
		if err != nil {
			return apperr.Internal(err, "failed to encode audit snapshot")
		}
		log.OldValues = raw
	}
	if entry.NewValues != nil {
		raw, err := json.Marshal(entry.NewValues)
		if err != nil {
			return apperr.Internal(err, "failed to encode audit snapshot")
		}
		log.NewValues = raw
	}

	if err := s.Repo.Create(ctx, log); err != nil {
		return apperr.Internal(err, "failed to write audit log")
	}
	return nil
}

func (s *AuditServiceImpl) ListByEntity(ctx context.Context, entityType, entityID string, page models.PageRequest) (models.PagedResult[AuditLog], error) {
	return s.search(ctx, SearchFilter{EntityType: entityType, EntityID: entityID}, page)
}

func (s *AuditServiceImpl) ListByUser(ctx context.Context, userID string, from, to *time.Time, page models.PageRequest) (models.PagedResult[AuditLog], error) {
	return s.search(ctx, SearchFilter{UserID: userID, From: from, To: to}, page)
}

func (s *AuditServiceImpl) Search(ctx context.Context, filter SearchFilter, page models.PageRequest) (models.PagedResult[AuditLog], error) {
	return s.search(ctx, filter, page)
}

func (s *AuditServiceImpl) search(ctx context.Context, filter SearchFilter, page models.PageRequest) (models.PagedResult[AuditLog], error) {
	page = page.Normalize()
	logs, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[AuditLog]{}, apperr.Internal(err, "failed to query audit logs")
	}
	return models.NewPagedResult(logs, total, page), nil
}
