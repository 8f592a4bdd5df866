package integration

import (
	"context"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
)

// DefinitionCounter reports how many live entity definitions still hang
// off a system; the delete path is blocked while any remain.
type DefinitionCounter interface {
	CountBySystem(ctx context.Context, systemID string) (int64, error)
}

type IntegrationService interface {
	CreateSystem(ctx context.Context, req CreateSystemRequest) (*IntegrationSystem, error)
	GetSystem(ctx context.Context, id string) (*IntegrationSystem, error)
	ListSystems(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[IntegrationSystem], error)
	UpdateSystem(ctx context.Context, id string, req UpdateSystemRequest) (*IntegrationSystem, error)
	DeleteSystem(ctx context.Context, id string) error
}

type IntegrationServiceImpl struct {
	Repo         IntegrationRepository
	Definitions  DefinitionCounter
	AuditService audit.Recorder
}

func NewIntegrationService(repo IntegrationRepository, definitions DefinitionCounter, auditService audit.Recorder) IntegrationService {
	return &IntegrationServiceImpl{
		Repo:         repo,
		Definitions:  definitions,
		AuditService: auditService,
	}
}

func (s *IntegrationServiceImpl) CreateSystem(ctx context.Context, req CreateSystemRequest) (*IntegrationSystem, error) {
	if req.AuthenticationType == "" {
		req.AuthenticationType = AuthTypeNone
	}
	if !req.AuthenticationType.IsValid() {
		return nil, apperr.Validation("unknown authentication type %q", req.AuthenticationType)
	}

	exists, err := s.Repo.NameExists(ctx, req.Name, "")
	if err != nil {
		return nil, apperr.Internal(err, "failed to check system name")
	}
	if exists {
		return nil, apperr.Conflict("integration system %q already exists", req.Name)
	}

	sys := &IntegrationSystem{
		Name:               req.Name,
		DisplayName:        req.DisplayName,
		Description:        req.Description,
		SystemType:         req.SystemType,
		ConnectionString:   req.ConnectionString,
		AuthenticationType: req.AuthenticationType,
		IsActive:           req.IsActive == nil || *req.IsActive,
		Configuration:      []byte(req.Configuration),
	}
	sys.StampCreate(models.Actor(ctx))

	if err := s.Repo.Create(ctx, sys); err != nil {
		return nil, apperr.Internal(err, "failed to create integration system")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   sys.ID,
		Action:     models.AuditActionCreate,
		NewValues:  sys,
	}); err != nil {
		return nil, err
	}
	return sys, nil
}

func (s *IntegrationServiceImpl) GetSystem(ctx context.Context, id string) (*IntegrationSystem, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *IntegrationServiceImpl) ListSystems(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[IntegrationSystem], error) {
	page = page.Normalize()
	systems, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[IntegrationSystem]{}, apperr.Internal(err, "failed to list integration systems")
	}
	return models.NewPagedResult(systems, total, page), nil
}

func (s *IntegrationServiceImpl) UpdateSystem(ctx context.Context, id string, req UpdateSystemRequest) (*IntegrationSystem, error) {
	if req.AuthenticationType == "" {
		req.AuthenticationType = AuthTypeNone
	}
	if !req.AuthenticationType.IsValid() {
		return nil, apperr.Validation("unknown authentication type %q", req.AuthenticationType)
	}

	sys, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *sys

	if req.Name != sys.Name {
		exists, err := s.Repo.NameExists(ctx, req.Name, id)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check system name")
		}
		if exists {
			return nil, apperr.Conflict("integration system %q already exists", req.Name)
		}
	}

	sys.Name = req.Name
	sys.DisplayName = req.DisplayName
	sys.Description = req.Description
	sys.SystemType = req.SystemType
	sys.ConnectionString = req.ConnectionString
	sys.AuthenticationType = req.AuthenticationType
	if req.IsActive != nil {
		sys.IsActive = *req.IsActive
	}
	if req.Configuration != nil {
		sys.Configuration = []byte(req.Configuration)
	}
	sys.StampUpdate(models.Actor(ctx))

	if err := s.Repo.Update(ctx, sys, req.Version); err != nil {
		return nil, err
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   sys.ID,
		Action:     models.AuditActionUpdate,
		OldValues:  old,
		NewValues:  sys,
	}); err != nil {
		return nil, err
	}
	return sys, nil
}

func (s *IntegrationServiceImpl) DeleteSystem(ctx context.Context, id string) error {
	sys, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.Definitions.CountBySystem(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to check system dependents")
	}
	if count > 0 {
		return apperr.Dependency("integration system %q still owns %d entity definitions", sys.Name, count)
	}

	old := *sys
	sys.StampDelete(models.Actor(ctx))
	if err := s.Repo.SoftDelete(ctx, sys); err != nil {
		return err
	}

	return s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   sys.ID,
		Action:     models.AuditActionDelete,
		OldValues:  old,
	})
}
