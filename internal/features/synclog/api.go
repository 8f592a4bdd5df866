package synclog

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncLogApi struct {
	controller *SyncLogController
	config     *config.Config
}

func NewSyncLogApi(controller *SyncLogController, config *config.Config) *SyncLogApi {
	return &SyncLogApi{
		controller: controller,
		config:     config,
	}
}

func (h *SyncLogApi) Setup(app *fiber.App) {
	logs := app.Group("/api/sync-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	logs.Post("/", h.controller.StartSync)
	logs.Get("/", h.controller.ListSyncLogs)
	logs.Get("/:id", h.controller.GetSyncLog)
	logs.Post("/:id/complete", h.controller.CompleteSync)
}
