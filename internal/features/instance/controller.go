package instance

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type InstanceController struct {
	Service InstanceService
}

func NewInstanceController(service InstanceService) *InstanceController {
	return &InstanceController{Service: service}
}

func listFilterFromQuery(c *fiber.Ctx) ListFilter {
	filter := ListFilter{
		Search:             c.Query("search"),
		EntityDefinitionID: c.Query("entityDefinitionId"),
		SyncStatus:         models.SyncStatus(c.Query("syncStatus")),
	}
	filter.IsActive = common_api.BoolFromQuery(c, "isActive")
	return filter
}

// CreateInstance godoc
// @Summary Create an entity instance with its property values
// @Tags entity-instances
// @Accept json
// @Produce json
// @Router /api/entity-instances [post]
func (ctrl *InstanceController) CreateInstance(c *fiber.Ctx) error {
	var req CreateInstanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	inst, err := ctrl.Service.CreateInstance(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/entity-instances/"+inst.ID)
	return c.Status(fiber.StatusCreated).JSON(inst)
}

// GetInstance godoc
// @Summary Fetch one entity instance with projected property values
// @Tags entity-instances
// @Produce json
// @Router /api/entity-instances/{id} [get]
func (ctrl *InstanceController) GetInstance(c *fiber.Ctx) error {
	inst, err := ctrl.Service.GetInstance(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inst)
}

// ListInstances godoc
// @Summary List entity instances
// @Tags entity-instances
// @Produce json
// @Router /api/entity-instances [get]
func (ctrl *InstanceController) ListInstances(c *fiber.Ctx) error {
	result, err := ctrl.Service.ListInstances(c.UserContext(), listFilterFromQuery(c), common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateInstance godoc
// @Summary Update an entity instance, replacing its property value set
// @Tags entity-instances
// @Accept json
// @Produce json
// @Router /api/entity-instances/{id} [put]
func (ctrl *InstanceController) UpdateInstance(c *fiber.Ctx) error {
	var req UpdateInstanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	inst, err := ctrl.Service.UpdateInstance(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(inst)
}

// DeleteInstance godoc
// @Summary Soft-delete an entity instance and its property values
// @Tags entity-instances
// @Router /api/entity-instances/{id} [delete]
func (ctrl *InstanceController) DeleteInstance(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteInstance(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportInstances godoc
// @Summary Export entity instances of one definition as an XLSX workbook
// @Tags entity-instances
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/entity-instances/export [get]
func (ctrl *InstanceController) ExportInstances(c *fiber.Ctx) error {
	data, name, err := ctrl.Service.ExportInstances(c.UserContext(), listFilterFromQuery(c))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}
