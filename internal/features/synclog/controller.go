package synclog

import (
	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type SyncLogController struct {
	Service SyncLogService
}

func NewSyncLogController(service SyncLogService) *SyncLogController {
	return &SyncLogController{Service: service}
}

// StartSync godoc
// @Summary Open a sync run against an integration system
// @Tags sync-logs
// @Accept json
// @Produce json
// @Router /api/sync-logs [post]
func (ctrl *SyncLogController) StartSync(c *fiber.Ctx) error {
	var req StartSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	log, err := ctrl.Service.StartSync(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set("Location", "/api/sync-logs/"+log.ID)
	return c.Status(fiber.StatusCreated).JSON(log)
}

// CompleteSync godoc
// @Summary Finalize a sync run with its outcome
// @Tags sync-logs
// @Accept json
// @Produce json
// @Router /api/sync-logs/{id}/complete [post]
func (ctrl *SyncLogController) CompleteSync(c *fiber.Ctx) error {
	var req CompleteSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	log, err := ctrl.Service.CompleteSync(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(log)
}

// GetSyncLog godoc
// @Summary Fetch one sync run
// @Tags sync-logs
// @Produce json
// @Router /api/sync-logs/{id} [get]
func (ctrl *SyncLogController) GetSyncLog(c *fiber.Ctx) error {
	log, err := ctrl.Service.GetSyncLog(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(log)
}

// ListSyncLogs godoc
// @Summary List sync runs, newest first
// @Tags sync-logs
// @Produce json
// @Router /api/sync-logs [get]
func (ctrl *SyncLogController) ListSyncLogs(c *fiber.Ctx) error {
	filter := ListFilter{
		IntegrationSystemID: c.Query("integrationSystemId"),
		EntityDefinitionID:  c.Query("entityDefinitionId"),
		Status:              models.SyncStatus(c.Query("status")),
		From:                common_api.TimeFromQuery(c, "from"),
		To:                  common_api.TimeFromQuery(c, "to"),
	}

	result, err := ctrl.Service.ListSyncLogs(c.UserContext(), filter, common_api.PageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}
