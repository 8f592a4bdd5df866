package audit

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	logs := app.Group("/api/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	logs.Get("/", h.controller.Search)
	logs.Get("/entity/:entityType/:entityId", h.controller.EntityHistory)
	logs.Get("/user/:userId", h.controller.UserActivity)
}
