package integration

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type IntegrationController struct {
	Service IntegrationService
}

func NewIntegrationController(service IntegrationService) *IntegrationController {
	return &IntegrationController{Service: service}
}

// CreateSystem godoc
// @Summary Register an external integration system
// @Tags integration-systems
// @Accept json
// @Produce json
// @Router /api/integration-systems [post]
func (ctrl *IntegrationController) CreateSystem(c *fiber.Ctx) error {
	var req CreateSystemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	sys, err := ctrl.Service.CreateSystem(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/integration-systems/"+sys.ID)
	return c.Status(fiber.StatusCreated).JSON(sys)
}

// GetSystem godoc
// @Summary Fetch one integration system
// @Tags integration-systems
// @Produce json
// @Router /api/integration-systems/{id} [get]
func (ctrl *IntegrationController) GetSystem(c *fiber.Ctx) error {
	sys, err := ctrl.Service.GetSystem(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sys)
}

// ListSystems godoc
// @Summary List integration systems
// @Tags integration-systems
// @Produce json
// @Router /api/integration-systems [get]
func (ctrl *IntegrationController) ListSystems(c *fiber.Ctx) error {
	filter := ListFilter{
		Search:     c.Query("search"),
		SystemType: c.Query("systemType"),
	}
	filter.IsActive = common_api.BoolFromQuery(c, "isActive")

	result, err := ctrl.Service.ListSystems(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateSystem godoc
// @Summary Update an integration system
// @Tags integration-systems
// @Accept json
// @Produce json
// @Router /api/integration-systems/{id} [put]
func (ctrl *IntegrationController) UpdateSystem(c *fiber.Ctx) error {
	var req UpdateSystemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	sys, err := ctrl.Service.UpdateSystem(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(sys)
}

// DeleteSystem godoc
// @Summary Soft-delete an integration system
// @Tags integration-systems
// @Router /api/integration-systems/{id} [delete]
func (ctrl *IntegrationController) DeleteSystem(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteSystem(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
