package integration

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type IntegrationApi struct {
	controller *IntegrationController
	config     *config.Config
}

func NewIntegrationApi(controller *IntegrationController, config *config.Config) *IntegrationApi {
	return &IntegrationApi{
		controller: controller,
		config:     config,
	}
}

func (h *IntegrationApi) Setup(app *fiber.App) {
	systems := app.Group("/api/integration-systems", middleware.AuthMiddleware(h.config.SkipAuth))

	systems.Post("/", h.controller.CreateSystem)
	systems.Get("/", h.controller.ListSystems)
	systems.Get("/:id", h.controller.GetSystem)
	systems.Put("/:id", h.controller.UpdateSystem)
	systems.Delete("/:id", h.controller.DeleteSystem)
}
