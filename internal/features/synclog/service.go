package synclog

import (
	"context"
	"time"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
)

// SyncTarget resolves integration systems and receives run outcomes.
type SyncTarget interface {
	SystemExists(ctx context.Context, id string) (bool, error)
	MarkSynced(ctx context.Context, id string, status models.SyncStatus, at time.Time) error
}

// DefinitionFinder resolves entity definitions by id.
type DefinitionFinder interface {
	DefinitionExists(ctx context.Context, id string) (bool, error)
}

type SyncLogService interface {
	StartSync(ctx context.Context, req StartSyncRequest) (*SyncLog, error)
	CompleteSync(ctx context.Context, id string, req CompleteSyncRequest) (*SyncLog, error)
	GetSyncLog(ctx context.Context, id string) (*SyncLog, error)
	ListSyncLogs(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[SyncLog], error)
}

type SyncLogServiceImpl struct {
	Repo         SyncLogRepository
	Systems      SyncTarget
	Definitions  DefinitionFinder
	AuditService audit.Recorder
}

func NewSyncLogService(repo SyncLogRepository, systems SyncTarget, definitions DefinitionFinder, auditService audit.Recorder) SyncLogService {
	return &SyncLogServiceImpl{
		Repo:         repo,
		Systems:      systems,
		Definitions:  definitions,
		AuditService: auditService,
	}
}

func (s *SyncLogServiceImpl) StartSync(ctx context.Context, req StartSyncRequest) (*SyncLog, error) {
	exists, err := s.Systems.SystemExists(ctx, req.IntegrationSystemID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to resolve integration system")
	}
	if !exists {
		return nil, apperr.NotFound("integration system %s not found", req.IntegrationSystemID)
	}
	if req.EntityDefinitionID != "" {
		exists, err := s.Definitions.DefinitionExists(ctx, req.EntityDefinitionID)
		if err != nil {
			return nil, apperr.Internal(err, "failed to resolve entity definition")
		}
		if !exists {
			return nil, apperr.NotFound("entity definition %s not found", req.EntityDefinitionID)
		}
	}

	operation := req.Operation
	if operation == "" {
		operation = "FullSync"
	}

	log := &SyncLog{
		IntegrationSystemID: req.IntegrationSystemID,
		EntityDefinitionID:  req.EntityDefinitionID,
		Operation:           operation,
		Status:              models.SyncStatusInProgress,
		StartedAt:           time.Now().UTC(),
		TriggeredBy:         models.Actor(ctx),
		CorrelationID:       models.CorrelationID(ctx),
	}
	if err := s.Repo.Create(ctx, log); err != nil {
		return nil, apperr.Internal(err, "failed to create sync log")
	}

	if err := s.Systems.MarkSynced(ctx, req.IntegrationSystemID, models.SyncStatusInProgress, log.StartedAt); err != nil {
		return nil, apperr.Internal(err, "failed to mark system syncing")
	}
	return log, nil
}

// CompleteSync finalizes a run with a terminal status and pushes the
// outcome onto the integration system row.
func (s *SyncLogServiceImpl) CompleteSync(ctx context.Context, id string, req CompleteSyncRequest) (*SyncLog, error) {
	switch req.Status {
	case models.SyncStatusSuccess, models.SyncStatusFailed, models.SyncStatusCancelled:
	default:
		return nil, apperr.Validation("status %q is not a terminal sync status", req.Status)
	}

	log, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	log.Status = req.Status
	log.CompletedAt = &now
	log.RecordsProcessed = req.RecordsProcessed
	log.RecordsCreated = req.RecordsCreated
	log.RecordsUpdated = req.RecordsUpdated
	log.RecordsFailed = req.RecordsFailed
	log.ErrorMessage = req.ErrorMessage

	if err := s.Repo.Complete(ctx, log); err != nil {
		return nil, err
	}

	if err := s.Systems.MarkSynced(ctx, log.IntegrationSystemID, req.Status, now); err != nil {
		return nil, apperr.Internal(err, "failed to mark system synced")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   log.ID,
		Action:     models.AuditActionSync,
		NewValues:  log,
	}); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *SyncLogServiceImpl) GetSyncLog(ctx context.Context, id string) (*SyncLog, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *SyncLogServiceImpl) ListSyncLogs(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[SyncLog], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return models.PagedResult[SyncLog]{}, apperr.Validation("unknown sync status %q", filter.Status)
	}
	page = page.Normalize()
	logs, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[SyncLog]{}, apperr.Internal(err, "failed to list sync logs")
	}
	return models.NewPagedResult(logs, total, page), nil
}
