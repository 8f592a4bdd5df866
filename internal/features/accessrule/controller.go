package accessrule

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type RuleController struct {
	Service RuleService
}

func NewRuleController(service RuleService) *RuleController {
	return &RuleController{Service: service}
}

// CreateRule godoc
// @Summary Create an access rule
// @Tags access-rules
// @Accept json
// @Produce json
// @Router /api/access-rules [post]
func (ctrl *RuleController) CreateRule(c *fiber.Ctx) error {
	var req CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	rule, err := ctrl.Service.CreateRule(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/access-rules/"+rule.ID)
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// GetRule godoc
// @Summary Fetch one access rule
// @Tags access-rules
// @Produce json
// @Router /api/access-rules/{id} [get]
func (ctrl *RuleController) GetRule(c *fiber.Ctx) error {
	rule, err := ctrl.Service.GetRule(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rule)
}

// ListRules godoc
// @Summary List access rules
// @Tags access-rules
// @Produce json
// @Router /api/access-rules [get]
func (ctrl *RuleController) ListRules(c *fiber.Ctx) error {
	filter := ListFilter{
		Search:              c.Query("search"),
		IntegrationSystemID: c.Query("integrationSystemId"),
		TriggerType:         TriggerType(c.Query("triggerType")),
		ActionType:          ActionType(c.Query("actionType")),
	}
	filter.IsActive = common_api.BoolFromQuery(c, "isActive")

	result, err := ctrl.Service.ListRules(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateRule godoc
// @Summary Update an access rule
// @Tags access-rules
// @Accept json
// @Produce json
// @Router /api/access-rules/{id} [put]
func (ctrl *RuleController) UpdateRule(c *fiber.Ctx) error {
	var req UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	rule, err := ctrl.Service.UpdateRule(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(rule)
}

// DeleteRule godoc
// @Summary Soft-delete an access rule
// @Tags access-rules
// @Router /api/access-rules/{id} [delete]
func (ctrl *RuleController) DeleteRule(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteRule(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
