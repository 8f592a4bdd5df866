package audit

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// Search godoc
// @Summary Search audit logs
// @Tags audit-logs
// @Produce json
// @Success 200 {object} models.PagedResult[AuditLog]
// @Router /api/audit-logs [get]
func (ctrl *AuditController) Search(c *fiber.Ctx) error {
	filter := SearchFilter{
		EntityType:    c.Query("entityType"),
		EntityID:      c.Query("entityId"),
		Action:        models.AuditAction(c.Query("action")),
		UserID:        c.Query("userId"),
		CorrelationID: c.Query("correlationId"),
		From:          common_api.TimeFromQuery(c, "from"),
		To:            common_api.TimeFromQuery(c, "to"),
	}

	result, err := ctrl.Service.Search(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// EntityHistory godoc
// @Summary Change history of one entity, newest first
// @Tags audit-logs
// @Produce json
// @Router /api/audit-logs/entity/{entityType}/{entityId} [get]
func (ctrl *AuditController) EntityHistory(c *fiber.Ctx) error {
	result, err := ctrl.Service.ListByEntity(
		c.UserContext(),
		c.Params("entityType"),
		c.Params("entityId"),
		common_api.PageFromQuery(c),
	)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UserActivity godoc
// @Summary Activity of one user with an optional date range
// @Tags audit-logs
// @Produce json
// @Router /api/audit-logs/user/{userId} [get]
func (ctrl *AuditController) UserActivity(c *fiber.Ctx) error {
	result, err := ctrl.Service.ListByUser(
		c.UserContext(),
		c.Params("userId"),
		common_api.TimeFromQuery(c, "from"),
		common_api.TimeFromQuery(c, "to"),
		common_api.PageFromQuery(c),
	)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
