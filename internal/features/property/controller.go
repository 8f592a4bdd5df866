package property

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PropertyController struct {
	Service PropertyService
}

func NewPropertyController(service PropertyService) *PropertyController {
	return &PropertyController{Service: service}
}

// CreateProperty godoc
// @Summary Create a property definition
// @Tags property-definitions
// @Accept json
// @Produce json
// @Router /api/property-definitions [post]
func (ctrl *PropertyController) CreateProperty(c *fiber.Ctx) error {
	var req CreatePropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	prop, err := ctrl.Service.CreateProperty(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/property-definitions/"+prop.ID)
	return c.Status(fiber.StatusCreated).JSON(prop)
}

// GetProperty godoc
// @Summary Fetch one property definition
// @Tags property-definitions
// @Produce json
// @Router /api/property-definitions/{id} [get]
func (ctrl *PropertyController) GetProperty(c *fiber.Ctx) error {
	prop, err := ctrl.Service.GetProperty(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(prop)
}

// ListProperties godoc
// @Summary List property definitions
// @Tags property-definitions
// @Produce json
// @Router /api/property-definitions [get]
func (ctrl *PropertyController) ListProperties(c *fiber.Ctx) error {
	filter := ListFilter{
		EntityDefinitionID: c.Query("entityDefinitionId"),
		Search:             c.Query("search"),
	}

	result, err := ctrl.Service.ListProperties(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateProperty godoc
// @Summary Update a property definition
// @Tags property-definitions
// @Accept json
// @Produce json
// @Router /api/property-definitions/{id} [put]
func (ctrl *PropertyController) UpdateProperty(c *fiber.Ctx) error {
	var req UpdatePropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	prop, err := ctrl.Service.UpdateProperty(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(prop)
}

// DeleteProperty godoc
// @Summary Soft-delete a property definition and its stored values
// @Tags property-definitions
// @Router /api/property-definitions/{id} [delete]
func (ctrl *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteProperty(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
