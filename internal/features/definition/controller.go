package definition

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DefinitionController struct {
	Service DefinitionService
}

func NewDefinitionController(service DefinitionService) *DefinitionController {
	return &DefinitionController{Service: service}
}

// CreateDefinition godoc
// @Summary Create an entity definition under an integration system
// @Tags entity-definitions
// @Accept json
// @Produce json
// @Router /api/entity-definitions [post]
func (ctrl *DefinitionController) CreateDefinition(c *fiber.Ctx) error {
	var req CreateDefinitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	def, err := ctrl.Service.CreateDefinition(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/entity-definitions/"+def.ID)
	return c.Status(fiber.StatusCreated).JSON(def)
}

// GetDefinition godoc
// @Summary Fetch one entity definition
// @Tags entity-definitions
// @Produce json
// @Router /api/entity-definitions/{id} [get]
func (ctrl *DefinitionController) GetDefinition(c *fiber.Ctx) error {
	def, err := ctrl.Service.GetDefinition(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(def)
}

// ListDefinitions godoc
// @Summary List entity definitions
// @Tags entity-definitions
// @Produce json
// @Router /api/entity-definitions [get]
func (ctrl *DefinitionController) ListDefinitions(c *fiber.Ctx) error {
	filter := ListFilter{
		IntegrationSystemID: c.Query("integrationSystemId"),
		Search:              c.Query("search"),
	}
	filter.IsActive = common_api.BoolFromQuery(c, "isActive")

	result, err := ctrl.Service.ListDefinitions(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateDefinition godoc
// @Summary Update an entity definition
// @Tags entity-definitions
// @Accept json
// @Produce json
// @Router /api/entity-definitions/{id} [put]
func (ctrl *DefinitionController) UpdateDefinition(c *fiber.Ctx) error {
	var req UpdateDefinitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	def, err := ctrl.Service.UpdateDefinition(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(def)
}

// DeleteDefinition godoc
// @Summary Soft-delete an entity definition and everything it owns
// @Tags entity-definitions
// @Router /api/entity-definitions/{id} [delete]
func (ctrl *DefinitionController) DeleteDefinition(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteDefinition(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
