package property

import (
	"context"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
)

// DefinitionFinder resolves parent entity definitions by id.
type DefinitionFinder interface {
	DefinitionExists(ctx context.Context, id string) (bool, error)
}

type PropertyService interface {
	CreateProperty(ctx context.Context, req CreatePropertyRequest) (*PropertyDefinition, error)
	GetProperty(ctx context.Context, id string) (*PropertyDefinition, error)
	ListProperties(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[PropertyDefinition], error)
	UpdateProperty(ctx context.Context, id string, req UpdatePropertyRequest) (*PropertyDefinition, error)
	DeleteProperty(ctx context.Context, id string) error
}

type PropertyServiceImpl struct {
	Repo         PropertyRepository
	Definitions  DefinitionFinder
	AuditService audit.Recorder
}

func NewPropertyService(repo PropertyRepository, definitions DefinitionFinder, auditService audit.Recorder) PropertyService {
	return &PropertyServiceImpl{
		Repo:         repo,
		Definitions:  definitions,
		AuditService: auditService,
	}
}

func (s *PropertyServiceImpl) CreateProperty(ctx context.Context, req CreatePropertyRequest) (*PropertyDefinition, error) {
	if !req.DataType.IsValid() {
		return nil, apperr.Validation("unknown data type %q", req.DataType)
	}

	exists, err := s.Definitions.DefinitionExists(ctx, req.EntityDefinitionID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to resolve entity definition")
	}
	if !exists {
		return nil, apperr.NotFound("entity definition %s not found", req.EntityDefinitionID)
	}

	taken, err := s.Repo.NameExistsInDefinition(ctx, req.EntityDefinitionID, req.Name, "")
	if err != nil {
		return nil, apperr.Internal(err, "failed to check property name")
	}
	if taken {
		return nil, apperr.Conflict("property definition %q already exists on this entity definition", req.Name)
	}

	prop := &PropertyDefinition{
		EntityDefinitionID: req.EntityDefinitionID,
		Name:               req.Name,
		DisplayName:        req.DisplayName,
		Description:        req.Description,
		DataType:           req.DataType,
		SourceField:        req.SourceField,
		IsRequired:         req.IsRequired,
		IsUnique:           req.IsUnique,
		IsSearchable:       req.IsSearchable,
		IsDisplayed:        req.IsDisplayed == nil || *req.IsDisplayed,
		IsEditable:         req.IsEditable == nil || *req.IsEditable,
		SortOrder:          req.SortOrder,
		DefaultValue:       req.DefaultValue,
		ValidationRules:    []byte(req.ValidationRules),
		UIMetadata:         []byte(req.UIMetadata),
	}
	prop.StampCreate(models.Actor(ctx))

	if err := s.Repo.Create(ctx, prop); err != nil {
		return nil, apperr.Internal(err, "failed to create property definition")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   prop.ID,
		Action:     models.AuditActionCreate,
		NewValues:  prop,
	}); err != nil {
		return nil, err
	}
	return prop, nil
}

func (s *PropertyServiceImpl) GetProperty(ctx context.Context, id string) (*PropertyDefinition, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *PropertyServiceImpl) ListProperties(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[PropertyDefinition], error) {
	page = page.Normalize()
	props, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[PropertyDefinition]{}, apperr.Internal(err, "failed to list property definitions")
	}
	return models.NewPagedResult(props, total, page), nil
}

func (s *PropertyServiceImpl) UpdateProperty(ctx context.Context, id string, req UpdatePropertyRequest) (*PropertyDefinition, error) {
	if !req.DataType.IsValid() {
		return nil, apperr.Validation("unknown data type %q", req.DataType)
	}

	prop, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *prop

	if req.Name != prop.Name {
		taken, err := s.Repo.NameExistsInDefinition(ctx, prop.EntityDefinitionID, req.Name, id)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check property name")
		}
		if taken {
			return nil, apperr.Conflict("property definition %q already exists on this entity definition", req.Name)
		}
	}

	prop.Name = req.Name
	prop.DisplayName = req.DisplayName
	prop.Description = req.Description
	prop.DataType = req.DataType
	prop.SourceField = req.SourceField
	prop.IsRequired = req.IsRequired
	prop.IsUnique = req.IsUnique
	prop.IsSearchable = req.IsSearchable
	if req.IsDisplayed != nil {
		prop.IsDisplayed = *req.IsDisplayed
	}
	if req.IsEditable != nil {
		prop.IsEditable = *req.IsEditable
	}
	prop.SortOrder = req.SortOrder
	prop.DefaultValue = req.DefaultValue
	if req.ValidationRules != nil {
		prop.ValidationRules = []byte(req.ValidationRules)
	}
	if req.UIMetadata != nil {
		prop.UIMetadata = []byte(req.UIMetadata)
	}
	prop.StampUpdate(models.Actor(ctx))

	if err := s.Repo.Update(ctx, prop, req.Version); err != nil {
		return nil, err
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   prop.ID,
		Action:     models.AuditActionUpdate,
		OldValues:  old,
		NewValues:  prop,
	}); err != nil {
		return nil, err
	}
	return prop, nil
}

func (s *PropertyServiceImpl) DeleteProperty(ctx context.Context, id string) error {
	prop, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	old := *prop
	prop.StampDelete(models.Actor(ctx))
	if err := s.Repo.SoftDelete(ctx, prop); err != nil {
		return err
	}

	return s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   prop.ID,
		Action:     models.AuditActionDelete,
		OldValues:  old,
	})
}
