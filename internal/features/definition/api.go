package definition

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DefinitionApi struct {
	controller *DefinitionController
	config     *config.Config
}

func NewDefinitionApi(controller *DefinitionController, config *config.Config) *DefinitionApi {
	return &DefinitionApi{
		controller: controller,
		config:     config,
	}
}

func (h *DefinitionApi) Setup(app *fiber.App) {
	defs := app.Group("/api/entity-definitions", middleware.AuthMiddleware(h.config.SkipAuth))

	defs.Post("/", h.controller.CreateDefinition)
	defs.Get("/", h.controller.ListDefinitions)
	defs.Get("/:id", h.controller.GetDefinition)
	defs.Put("/:id", h.controller.UpdateDefinition)
	defs.Delete("/:id", h.controller.DeleteDefinition)
}
