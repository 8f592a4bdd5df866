package instance

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
	"go-iam/internal/features/property"

	"github.com/xuri/excelize/v2"
)

// DefinitionFinder resolves parent entity definitions by id.
type DefinitionFinder interface {
	DefinitionExists(ctx context.Context, id string) (bool, error)
}

// PropertyCatalog lists the live property definitions of an entity
// definition. Incoming values are validated and projected against it.
type PropertyCatalog interface {
	ListByDefinition(ctx context.Context, definitionID string) ([]property.PropertyDefinition, error)
}

// AssignmentChecker reports whether an instance is still referenced by a
// live access assignment, which blocks its deletion.
type AssignmentChecker interface {
	InstanceReferenced(ctx context.Context, instanceID string) (bool, error)
}

type InstanceService interface {
	CreateInstance(ctx context.Context, req CreateInstanceRequest) (*InstanceDTO, error)
	GetInstance(ctx context.Context, id string) (*InstanceDTO, error)
	ListInstances(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[EntityInstance], error)
	UpdateInstance(ctx context.Context, id string, req UpdateInstanceRequest) (*InstanceDTO, error)
	DeleteInstance(ctx context.Context, id string) error
	ExportInstances(ctx context.Context, filter ListFilter) ([]byte, string, error)
}

type InstanceServiceImpl struct {
	Repo         InstanceRepository
	Definitions  DefinitionFinder
	Properties   PropertyCatalog
	Assignments  AssignmentChecker
	AuditService audit.Recorder
}

func NewInstanceService(repo InstanceRepository, definitions DefinitionFinder, properties PropertyCatalog, assignments AssignmentChecker, auditService audit.Recorder) InstanceService {
	return &InstanceServiceImpl{
		Repo:         repo,
		Definitions:  definitions,
		Properties:   properties,
		Assignments:  assignments,
		AuditService: auditService,
	}
}

func (s *InstanceServiceImpl) CreateInstance(ctx context.Context, req CreateInstanceRequest) (*InstanceDTO, error) {
	exists, err := s.Definitions.DefinitionExists(ctx, req.EntityDefinitionID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to resolve entity definition")
	}
	if !exists {
		return nil, apperr.NotFound("entity definition %s not found", req.EntityDefinitionID)
	}

	taken, err := s.Repo.ExternalIDExists(ctx, req.EntityDefinitionID, req.ExternalID, "")
	if err != nil {
		return nil, apperr.Internal(err, "failed to check external id")
	}
	if taken {
		return nil, apperr.Conflict("entity instance with external id %q already exists on this entity definition", req.ExternalID)
	}

	props, err := s.catalog(ctx, req.EntityDefinitionID)
	if err != nil {
		return nil, err
	}

	actor := models.Actor(ctx)
	values, err := buildValues(props, req.PropertyValues, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inst := &EntityInstance{
		EntityDefinitionID: req.EntityDefinitionID,
		ExternalID:         req.ExternalID,
		DisplayName:        req.DisplayName,
		IsActive:           req.IsActive == nil || *req.IsActive,
		SyncStatus:         models.SyncStatusSuccess,
		LastSyncedAt:       &now,
		RawData:            []byte(req.RawData),
	}
	inst.StampCreate(actor)

	if err := s.Repo.CreateWithValues(ctx, inst, values); err != nil {
		return nil, apperr.Internal(err, "failed to create entity instance")
	}

	dto := s.toDTO(inst, values, props)
	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   inst.ID,
		Action:     models.AuditActionCreate,
		NewValues:  dto,
	}); err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *InstanceServiceImpl) GetInstance(ctx context.Context, id string) (*InstanceDTO, error) {
	inst, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadDTO(ctx, inst)
}

func (s *InstanceServiceImpl) ListInstances(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[EntityInstance], error) {
	if filter.SyncStatus != "" && !filter.SyncStatus.IsValid() {
		return models.PagedResult[EntityInstance]{}, apperr.Validation("unknown sync status %q", filter.SyncStatus)
	}
	page = page.Normalize()
	instances, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[EntityInstance]{}, apperr.Internal(err, "failed to list entity instances")
	}
	return models.NewPagedResult(instances, total, page), nil
}

func (s *InstanceServiceImpl) UpdateInstance(ctx context.Context, id string, req UpdateInstanceRequest) (*InstanceDTO, error) {
	inst, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ExternalID != inst.ExternalID {
		taken, err := s.Repo.ExternalIDExists(ctx, inst.EntityDefinitionID, req.ExternalID, id)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check external id")
		}
		if taken {
			return nil, apperr.Conflict("entity instance with external id %q already exists on this entity definition", req.ExternalID)
		}
	}

	props, err := s.catalog(ctx, inst.EntityDefinitionID)
	if err != nil {
		return nil, err
	}

	stored, err := s.Repo.ListValues(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load property values")
	}

	actor := models.Actor(ctx)
	oldDTO := s.toDTO(inst, stored, props)
	old := *oldDTO

	inserts, updates, removeIDs, err := diffValues(props, stored, req.PropertyValues, actor)
	if err != nil {
		return nil, err
	}

	inst.ExternalID = req.ExternalID
	inst.DisplayName = req.DisplayName
	if req.IsActive != nil {
		inst.IsActive = *req.IsActive
	}
	if req.RawData != nil {
		inst.RawData = []byte(req.RawData)
	}
	inst.StampUpdate(actor)

	if err := s.Repo.UpdateWithValues(ctx, inst, req.Version, inserts, updates, removeIDs); err != nil {
		return nil, err
	}

	dto, err := s.loadDTO(ctx, inst)
	if err != nil {
		return nil, err
	}
	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   inst.ID,
		Action:     models.AuditActionUpdate,
		OldValues:  old,
		NewValues:  dto,
	}); err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *InstanceServiceImpl) DeleteInstance(ctx context.Context, id string) error {
	inst, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.Assignments.InstanceReferenced(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to check access assignments")
	}
	if referenced {
		return apperr.Dependency("entity instance %s is referenced by access assignments", id)
	}

	old := *inst
	inst.StampDelete(models.Actor(ctx))
	if err := s.Repo.SoftDelete(ctx, inst); err != nil {
		return err
	}

	return s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   inst.ID,
		Action:     models.AuditActionDelete,
		OldValues:  old,
	})
}

// ExportInstances writes the current selection to an XLSX workbook: the
// instance header columns followed by one column per displayed property
// of the definition.
func (s *InstanceServiceImpl) ExportInstances(ctx context.Context, filter ListFilter) ([]byte, string, error) {
	if filter.EntityDefinitionID == "" {
		return nil, "", apperr.Validation("entityDefinitionId is required for export")
	}

	props, err := s.catalog(ctx, filter.EntityDefinitionID)
	if err != nil {
		return nil, "", err
	}

	instances, err := s.Repo.ListForExport(ctx, filter)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to list entity instances")
	}

	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	values, err := s.Repo.ListValuesByInstanceIDs(ctx, ids)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to load property values")
	}
	byInstance := make(map[string]map[string]PropertyValue, len(instances))
	for _, v := range values {
		if byInstance[v.EntityInstanceID] == nil {
			byInstance[v.EntityInstanceID] = make(map[string]PropertyValue)
		}
		byInstance[v.EntityInstanceID][v.PropertyDefinitionID] = v
	}

	var displayed []property.PropertyDefinition
	for _, p := range props {
		if p.IsDisplayed {
			displayed = append(displayed, p)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"External ID", "Display Name", "Active", "Sync Status"}
	for _, p := range displayed {
		headers = append(headers, p.DisplayName)
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", apperr.Internal(err, "failed to build export workbook")
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", apperr.Internal(err, "failed to build export workbook")
		}
	}

	for row, inst := range instances {
		cells := []any{inst.ExternalID, inst.DisplayName, inst.IsActive, string(inst.SyncStatus)}
		for _, p := range displayed {
			v, ok := byInstance[inst.ID][p.ID]
			if !ok {
				cells = append(cells, "")
				continue
			}
			if v.DisplayValue != "" {
				cells = append(cells, v.DisplayValue)
			} else {
				cells = append(cells, v.Value)
			}
		}
		for col, val := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, "", apperr.Internal(err, "failed to build export workbook")
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, "", apperr.Internal(err, "failed to build export workbook")
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", apperr.Internal(err, "failed to write export workbook")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   filter.EntityDefinitionID,
		Action:     models.AuditActionExport,
		NewValues:  fmt.Sprintf("exported %d instances", len(instances)),
	}); err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("entity-instances-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	return buf.Bytes(), name, nil
}

func (s *InstanceServiceImpl) catalog(ctx context.Context, definitionID string) ([]property.PropertyDefinition, error) {
	props, err := s.Properties.ListByDefinition(ctx, definitionID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load property definitions")
	}
	return props, nil
}

func (s *InstanceServiceImpl) loadDTO(ctx context.Context, inst *EntityInstance) (*InstanceDTO, error) {
	values, err := s.Repo.ListValues(ctx, inst.ID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load property values")
	}
	props, err := s.catalog(ctx, inst.EntityDefinitionID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(inst, values, props), nil
}

func (s *InstanceServiceImpl) toDTO(inst *EntityInstance, values []PropertyValue, props []property.PropertyDefinition) *InstanceDTO {
	byID := make(map[string]property.PropertyDefinition, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}

	dto := &InstanceDTO{
		EntityInstance: *inst,
		PropertyValues: make([]PropertyValueDTO, 0, len(values)),
	}
	for _, v := range values {
		item := PropertyValueDTO{PropertyValue: v}
		if p, ok := byID[v.PropertyDefinitionID]; ok {
			item.PropertyDefinitionName = p.Name
			item.PropertyDataType = p.DataType
		}
		dto.PropertyValues = append(dto.PropertyValues, item)
	}
	return dto
}

// buildValues validates the incoming set against the definition's catalog
// and fills defaults for required properties the caller omitted.
func buildValues(props []property.PropertyDefinition, inputs []PropertyValueInput, actor string) ([]PropertyValue, error) {
	byID := make(map[string]property.PropertyDefinition, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}

	seen := make(map[string]bool, len(inputs))
	values := make([]PropertyValue, 0, len(inputs))
	for _, in := range inputs {
		p, ok := byID[in.PropertyDefinitionID]
		if !ok {
			return nil, apperr.Validation("property definition %s does not belong to this entity definition", in.PropertyDefinitionID)
		}
		if seen[in.PropertyDefinitionID] {
			return nil, apperr.Validation("duplicate value for property definition %q", p.Name)
		}
		seen[in.PropertyDefinitionID] = true

		v := PropertyValue{
			PropertyDefinitionID: in.PropertyDefinitionID,
			Value:                in.Value,
			DisplayValue:         in.DisplayValue,
			IsDefault:            in.IsDefault,
			EffectiveFrom:        in.EffectiveFrom,
			EffectiveTo:          in.EffectiveTo,
		}
		v.StampCreate(actor)
		values = append(values, v)
	}

	for _, p := range props {
		if seen[p.ID] || !p.IsRequired {
			continue
		}
		if p.DefaultValue == "" {
			return nil, apperr.Validation("required property %q has no value", p.Name)
		}
		v := PropertyValue{
			PropertyDefinitionID: p.ID,
			Value:                p.DefaultValue,
			IsDefault:            true,
		}
		v.StampCreate(actor)
		values = append(values, v)
	}
	return values, nil
}

// diffValues computes the full-replace delta: inputs carrying an id update
// the matching stored value, inputs without an id insert, and stored
// values absent from the request are removed. A value row never moves to
// another property definition; repointing is a remove plus an insert.
func diffValues(props []property.PropertyDefinition, stored []PropertyValue, inputs []PropertyValueInput, actor string) (inserts, updates []PropertyValue, removeIDs []string, err error) {
	byID := make(map[string]property.PropertyDefinition, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}
	storedByID := make(map[string]PropertyValue, len(stored))
	for _, v := range stored {
		storedByID[v.ID] = v
	}

	seenProp := make(map[string]bool, len(inputs))
	kept := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		p, ok := byID[in.PropertyDefinitionID]
		if !ok {
			return nil, nil, nil, apperr.Validation("property definition %s does not belong to this entity definition", in.PropertyDefinitionID)
		}
		if seenProp[in.PropertyDefinitionID] {
			return nil, nil, nil, apperr.Validation("duplicate value for property definition %q", p.Name)
		}
		seenProp[in.PropertyDefinitionID] = true

		if in.ID != nil && *in.ID != "" {
			existing, ok := storedByID[*in.ID]
			if !ok {
				return nil, nil, nil, apperr.Validation("property value %s does not belong to this entity instance", *in.ID)
			}
			if existing.PropertyDefinitionID != in.PropertyDefinitionID {
				return nil, nil, nil, apperr.Validation("property value %s belongs to property definition %s", *in.ID, existing.PropertyDefinitionID)
			}
			kept[*in.ID] = true
			existing.Value = in.Value
			existing.DisplayValue = in.DisplayValue
			existing.IsDefault = in.IsDefault
			existing.EffectiveFrom = in.EffectiveFrom
			existing.EffectiveTo = in.EffectiveTo
			existing.StampUpdate(actor)
			updates = append(updates, existing)
			continue
		}

		v := PropertyValue{
			PropertyDefinitionID: in.PropertyDefinitionID,
			Value:                in.Value,
			DisplayValue:         in.DisplayValue,
			IsDefault:            in.IsDefault,
			EffectiveFrom:        in.EffectiveFrom,
			EffectiveTo:          in.EffectiveTo,
		}
		v.StampCreate(actor)
		inserts = append(inserts, v)
	}

	for _, p := range props {
		if seenProp[p.ID] || !p.IsRequired {
			continue
		}
		return nil, nil, nil, apperr.Validation("required property %q has no value", p.Name)
	}

	for _, v := range stored {
		if !kept[v.ID] {
			removeIDs = append(removeIDs, v.ID)
		}
	}
	return inserts, updates, removeIDs, nil
}
