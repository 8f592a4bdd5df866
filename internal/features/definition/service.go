package definition

import (
	"context"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
)

// SystemFinder resolves parent integration systems by id.
type SystemFinder interface {
	SystemExists(ctx context.Context, id string) (bool, error)
}

type DefinitionService interface {
	CreateDefinition(ctx context.Context, req CreateDefinitionRequest) (*EntityDefinition, error)
	GetDefinition(ctx context.Context, id string) (*EntityDefinition, error)
	ListDefinitions(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[EntityDefinition], error)
	UpdateDefinition(ctx context.Context, id string, req UpdateDefinitionRequest) (*EntityDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
}

type DefinitionServiceImpl struct {
	Repo         DefinitionRepository
	Systems      SystemFinder
	AuditService audit.Recorder
}

func NewDefinitionService(repo DefinitionRepository, systems SystemFinder, auditService audit.Recorder) DefinitionService {
	return &DefinitionServiceImpl{
		Repo:         repo,
		Systems:      systems,
		AuditService: auditService,
	}
}

func (s *DefinitionServiceImpl) CreateDefinition(ctx context.Context, req CreateDefinitionRequest) (*EntityDefinition, error) {
	exists, err := s.Systems.SystemExists(ctx, req.IntegrationSystemID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to resolve integration system")
	}
	if !exists {
		return nil, apperr.NotFound("integration system %s not found", req.IntegrationSystemID)
	}

	taken, err := s.Repo.NameExistsInSystem(ctx, req.IntegrationSystemID, req.Name, "")
	if err != nil {
		return nil, apperr.Internal(err, "failed to check definition name")
	}
	if taken {
		return nil, apperr.Conflict("entity definition %q already exists in this system", req.Name)
	}

	def := &EntityDefinition{
		IntegrationSystemID: req.IntegrationSystemID,
		Name:                req.Name,
		DisplayName:         req.DisplayName,
		Description:         req.Description,
		TableName:           req.TableName,
		PrimaryKeyField:     req.PrimaryKeyField,
		IsActive:            req.IsActive == nil || *req.IsActive,
		SortOrder:           req.SortOrder,
		Metadata:            []byte(req.Metadata),
	}
	def.StampCreate(models.Actor(ctx))

	if err := s.Repo.Create(ctx, def); err != nil {
		return nil, apperr.Internal(err, "failed to create entity definition")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   def.ID,
		Action:     models.AuditActionCreate,
		NewValues:  def,
	}); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *DefinitionServiceImpl) GetDefinition(ctx context.Context, id string) (*EntityDefinition, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *DefinitionServiceImpl) ListDefinitions(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[EntityDefinition], error) {
	page = page.Normalize()
	defs, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[EntityDefinition]{}, apperr.Internal(err, "failed to list entity definitions")
	}
	return models.NewPagedResult(defs, total, page), nil
}

func (s *DefinitionServiceImpl) UpdateDefinition(ctx context.Context, id string, req UpdateDefinitionRequest) (*EntityDefinition, error) {
	def, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *def

	if req.Name != def.Name {
		taken, err := s.Repo.NameExistsInSystem(ctx, def.IntegrationSystemID, req.Name, id)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check definition name")
		}
		if taken {
			return nil, apperr.Conflict("entity definition %q already exists in this system", req.Name)
		}
	}

	def.Name = req.Name
	def.DisplayName = req.DisplayName
	def.Description = req.Description
	def.TableName = req.TableName
	def.PrimaryKeyField = req.PrimaryKeyField
	if req.IsActive != nil {
		def.IsActive = *req.IsActive
	}
	def.SortOrder = req.SortOrder
	if req.Metadata != nil {
		def.Metadata = []byte(req.Metadata)
	}
	def.StampUpdate(models.Actor(ctx))

	if err := s.Repo.Update(ctx, def, req.Version); err != nil {
		return nil, err
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   def.ID,
		Action:     models.AuditActionUpdate,
		OldValues:  old,
		NewValues:  def,
	}); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *DefinitionServiceImpl) DeleteDefinition(ctx context.Context, id string) error {
	def, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	assigned, err := s.Repo.HasAssignedInstances(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to check definition dependents")
	}
	if assigned {
		return apperr.Dependency("entity definition %q has instances referenced by access assignments", def.Name)
	}

	old := *def
	def.StampDelete(models.Actor(ctx))
	if err := s.Repo.SoftDeleteCascade(ctx, def); err != nil {
		return err
	}

	return s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   def.ID,
		Action:     models.AuditActionDelete,
		OldValues:  old,
	})
}
