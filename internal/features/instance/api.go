package instance

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type InstanceApi struct {
	controller *InstanceController
	config     *config.Config
}

func NewInstanceApi(controller *InstanceController, config *config.Config) *InstanceApi {
	return &InstanceApi{
		controller: controller,
		config:     config,
	}
}

func (h *InstanceApi) Setup(app *fiber.App) {
	instances := app.Group("/api/entity-instances", middleware.AuthMiddleware(h.config.SkipAuth))

	instances.Post("/", h.controller.CreateInstance)
	instances.Get("/", h.controller.ListInstances)
	instances.Get("/export", h.controller.ExportInstances)
	instances.Get("/:id", h.controller.GetInstance)
	instances.Put("/:id", h.controller.UpdateInstance)
	instances.Delete("/:id", h.controller.DeleteInstance)
}
