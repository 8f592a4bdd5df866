package assignment

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type AssignmentController struct {
	Service AssignmentService
}

func NewAssignmentController(service AssignmentService) *AssignmentController {
	return &AssignmentController{Service: service}
}

// CreateAssignment godoc
// @Summary Grant a role to a user on a target system
// @Tags access-assignments
// @Accept json
// @Produce json
// @Router /api/access-assignments [post]
func (ctrl *AssignmentController) CreateAssignment(c *fiber.Ctx) error {
	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	assignment, err := ctrl.Service.CreateAssignment(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/access-assignments/"+assignment.ID)
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// GetAssignment godoc
// @Summary Fetch one access assignment
// @Tags access-assignments
// @Produce json
// @Router /api/access-assignments/{id} [get]
func (ctrl *AssignmentController) GetAssignment(c *fiber.Ctx) error {
	assignment, err := ctrl.Service.GetAssignment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(assignment)
}

// ListAssignments godoc
// @Summary List access assignments
// @Tags access-assignments
// @Produce json
// @Router /api/access-assignments [get]
func (ctrl *AssignmentController) ListAssignments(c *fiber.Ctx) error {
	filter := ListFilter{
		UserInstanceID: c.Query("userInstanceId"),
		RoleInstanceID: c.Query("roleInstanceId"),
		TargetSystemID: c.Query("targetSystemId"),
		AssignmentType: AssignmentType(c.Query("assignmentType")),
	}
	filter.IsActive = common_api.BoolFromQuery(c, "isActive")

	result, err := ctrl.Service.ListAssignments(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateAssignment godoc
// @Summary Update an access assignment
// @Tags access-assignments
// @Accept json
// @Produce json
// @Router /api/access-assignments/{id} [put]
func (ctrl *AssignmentController) UpdateAssignment(c *fiber.Ctx) error {
	var req UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	assignment, err := ctrl.Service.UpdateAssignment(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(assignment)
}

// DeleteAssignment godoc
// @Summary Revoke an access assignment
// @Tags access-assignments
// @Router /api/access-assignments/{id} [delete]
func (ctrl *AssignmentController) DeleteAssignment(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteAssignment(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
