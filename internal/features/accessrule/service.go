package accessrule

import (
	"context"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/features/audit"
)

// SystemFinder resolves integration systems by id.
type SystemFinder interface {
	SystemExists(ctx context.Context, id string) (bool, error)
}

type RuleService interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*AccessRule, error)
	GetRule(ctx context.Context, id string) (*AccessRule, error)
	ListRules(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[AccessRule], error)
	UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*AccessRule, error)
	DeleteRule(ctx context.Context, id string) error
}

type RuleServiceImpl struct {
	Repo         RuleRepository
	Systems      SystemFinder
	AuditService audit.Recorder
}

func NewRuleService(repo RuleRepository, systems SystemFinder, auditService audit.Recorder) RuleService {
	return &RuleServiceImpl{
		Repo:         repo,
		Systems:      systems,
		AuditService: auditService,
	}
}

func (s *RuleServiceImpl) validateEnums(trigger TriggerType, action ActionType) error {
	if !trigger.IsValid() {
		return apperr.Validation("unknown trigger type %q", trigger)
	}
	if !action.IsValid() {
		return apperr.Validation("unknown action type %q", action)
	}
	return nil
}

func (s *RuleServiceImpl) checkSystem(ctx context.Context, systemID string) error {
	if systemID == "" {
		return nil
	}
	exists, err := s.Systems.SystemExists(ctx, systemID)
	if err != nil {
		return apperr.Internal(err, "failed to resolve integration system")
	}
	if !exists {
		return apperr.NotFound("integration system %s not found", systemID)
	}
	return nil
}

func (s *RuleServiceImpl) CreateRule(ctx context.Context, req CreateRuleRequest) (*AccessRule, error) {
	if err := s.validateEnums(req.TriggerType, req.ActionType); err != nil {
		return nil, err
	}
	if err := s.checkSystem(ctx, req.IntegrationSystemID); err != nil {
		return nil, err
	}

	taken, err := s.Repo.NameExists(ctx, req.Name, "")
	if err != nil {
		return nil, apperr.Internal(err, "failed to check rule name")
	}
	if taken {
		return nil, apperr.Conflict("access rule %q already exists", req.Name)
	}

	rule := &AccessRule{
		Name:                req.Name,
		Description:         req.Description,
		IntegrationSystemID: req.IntegrationSystemID,
		TriggerType:         req.TriggerType,
		ActionType:          req.ActionType,
		Condition:           []byte(req.Condition),
		ActionConfiguration: []byte(req.ActionConfiguration),
		IsActive:            req.IsActive == nil || *req.IsActive,
		Priority:            req.Priority,
	}
	rule.StampCreate(models.Actor(ctx))

	if err := s.Repo.Create(ctx, rule); err != nil {
		return nil, apperr.Internal(err, "failed to create access rule")
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   rule.ID,
		Action:     models.AuditActionCreate,
		NewValues:  rule,
	}); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RuleServiceImpl) GetRule(ctx context.Context, id string) (*AccessRule, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *RuleServiceImpl) ListRules(ctx context.Context, filter ListFilter, page models.PageRequest) (models.PagedResult[AccessRule], error) {
	page = page.Normalize()
	rules, total, err := s.Repo.List(ctx, filter, page)
	if err != nil {
		return models.PagedResult[AccessRule]{}, apperr.Internal(err, "failed to list access rules")
	}
	return models.NewPagedResult(rules, total, page), nil
}

func (s *RuleServiceImpl) UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*AccessRule, error) {
	if err := s.validateEnums(req.TriggerType, req.ActionType); err != nil {
		return nil, err
	}
	if err := s.checkSystem(ctx, req.IntegrationSystemID); err != nil {
		return nil, err
	}

	rule, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *rule

	if req.Name != rule.Name {
		taken, err := s.Repo.NameExists(ctx, req.Name, id)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check rule name")
		}
		if taken {
			return nil, apperr.Conflict("access rule %q already exists", req.Name)
		}
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.IntegrationSystemID = req.IntegrationSystemID
	rule.TriggerType = req.TriggerType
	rule.ActionType = req.ActionType
	if req.Condition != nil {
		rule.Condition = []byte(req.Condition)
	}
	if req.ActionConfiguration != nil {
		rule.ActionConfiguration = []byte(req.ActionConfiguration)
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.Priority = req.Priority
	rule.StampUpdate(models.Actor(ctx))

	if err := s.Repo.Update(ctx, rule, req.Version); err != nil {
		return nil, err
	}

	if err := s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   rule.ID,
		Action:     models.AuditActionUpdate,
		OldValues:  old,
		NewValues:  rule,
	}); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RuleServiceImpl) DeleteRule(ctx context.Context, id string) error {
	rule, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	old := *rule
	rule.StampDelete(models.Actor(ctx))
	if err := s.Repo.SoftDelete(ctx, rule); err != nil {
		return err
	}

	return s.AuditService.Record(ctx, audit.Entry{
		EntityType: EntityType,
		EntityID:   rule.ID,
		Action:     models.AuditActionDelete,
		OldValues:  old,
	})
}
