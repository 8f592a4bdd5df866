package assignment

import (
	"context"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
)

// InstanceFinder resolves entity instances by id.
type InstanceFinder interface {
	InstanceExists(ctx context.Context, id string) (bool, error)
}

// SystemFinder resolves integration systems by id.
type SystemFinder interface {
	SystemExists(ctx context.Context, id string) (bool, error)
}

type AssignmentService interface {
	CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*AccessAssignment, error)
	GetAssignment(ctx context.Context, id string) (*AccessAssignment, error)
	ListAssignments(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[AccessAssignment], error)
	UpdateAssignment(ctx context.Context, id string, req UpdateAssignmentRequest) (*AccessAssignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

type AssignmentServiceImpl struct {
	Repo         AssignmentRepository
	Instances    InstanceFinder
	Systems      SystemFinder
	AuditService audit.Recorder
}

func NewAssignmentService(repo AssignmentRepository, instances InstanceFinder, systems SystemFinder, auditService audit.Recorder) AssignmentService {
	return &AssignmentServiceImpl{
		Repo:         repo,
		Instances:    instances,
		Systems:      systems,
		AuditService: auditService,
	}
}

func (s *AssignmentServiceImpl) checkReferences(ctx context.Context, req CreateAssignmentRequest) error {
	for _, ref := range []struct {
		id   string
		what string
	}{
		{req.UserInstanceID, "user instance"},
		{req.RoleInstanceID, "role instance"},
	} {
		exists, err := s.Instances.InstanceExists(ctx, ref.id)
		if err != nil {
			return apperr.Internal(err, "failed to resolve entity instance")
		}
		if !exists {
			return apperr.NotFound("%s %s not found", ref.what, ref.id)
		}
	}

	exists, err := s.Systems.SystemExists(ctx, req.TargetSystemID)
	if err != nil {
		return apperr.Internal(err, "failed to resolve integration system")
	}
	if !exists {
		return apperr.NotFound("target system %s not found", req.TargetSystemID)
	}
	return nil
}

func (s *AssignmentServiceImpl) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*AccessAssignment, error) {
	if !req.AssignmentType.IsValid() {
		return nil, apperr.Validation("unknown assignment type %q", req.AssignmentType)
	}
	if req.EffectiveFrom != nil && req.EffectiveTo != nil && req.EffectiveTo.Before(*req.EffectiveFrom) {
		return nil, apperr.Validation("effectiveTo precedes effectiveFrom")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	taken, err := s.Repo.TripleExists(ctx, req.UserInstanceID, req.RoleInstanceID, req.TargetSystemID, "")
	if err != nil {
		return nil, apperr.Internal(err, "failed to check assignment")
	}
	if taken {
		return nil, apperr.Conflict("assignment already exists for this user, role and target system")
	}

	assignment := &AccessAssignment{
		UserInstanceID: req.UserInstanceID,
		RoleInstanceID: req.RoleInstanceID,
		TargetSystemID: req.TargetSystemID,
		AssignmentType: req.AssignmentType,
		EffectiveFrom:  req.EffectiveFrom,
		EffectiveTo:    req.EffectiveTo,
		Justification:  req.Justification,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	assignment.StampCreate(models.Actor(ctx))

	if err := s.Repo.Create(ctx, assignment); err != nil {
		return nil, apperr.Internal(err, "failed to create access assignment")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   assignment.ID,
		Action:     models.AuditActionCreate,
		NewValues:  assignment,
	}); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentServiceImpl) GetAssignment(ctx context.Context, id string) (*AccessAssignment, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *AssignmentServiceImpl) ListAssignments(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[AccessAssignment], error) {
	page = page.Normalize()
	assignments, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[AccessAssignment]{}, apperr.Internal(err, "failed to list access assignments")
	}
	return models.NewPagedResult(assignments, total, page), nil
}

func (s *AssignmentServiceImpl) UpdateAssignment(ctx context.Context, id string, req UpdateAssignmentRequest) (*AccessAssignment, error) {
	if !req.AssignmentType.IsValid() {
		return nil, apperr.Validation("unknown assignment type %q", req.AssignmentType)
	}
	if req.EffectiveFrom != nil && req.EffectiveTo != nil && req.EffectiveTo.Before(*req.EffectiveFrom) {
		return nil, apperr.Validation("effectiveTo precedes effectiveFrom")
	}

	assignment, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *assignment

	assignment.AssignmentType = req.AssignmentType
	assignment.EffectiveFrom = req.EffectiveFrom
	assignment.EffectiveTo = req.EffectiveTo
	assignment.Justification = req.Justification
	if req.IsActive != nil {
		assignment.IsActive = *req.IsActive
	}
	assignment.StampUpdate(models.Actor(ctx))

	if err := s.Repo.Update(ctx, assignment, req.Version); err != nil {
		return nil, err
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   assignment.ID,
		Action:     models.AuditActionUpdate,
		OldValues:  old,
		NewValues:  assignment,
	}); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentServiceImpl) DeleteAssignment(ctx context.Context, id string) error {
	assignment, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	old := *assignment
	assignment.StampDelete(models.Actor(ctx))
	if err := s.Repo.SoftDelete(ctx, assignment); err != nil {
		return err
	}

	return s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   assignment.ID,
		Action:     models.AuditActionDelete,
		OldValues:  old,
	})
}
