package property

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PropertyApi struct {
	controller *PropertyController
	config     *config.Config
}

func NewPropertyApi(controller *PropertyController, config *config.Config) *PropertyApi {
	return &PropertyApi{
		controller: controller,
		config:     config,
	}
}

func (h *PropertyApi) Setup(app *fiber.App) {
	props := app.Group("/api/property-definitions", middleware.AuthMiddleware(h.config.SkipAuth))

	props.Post("/", h.controller.CreateProperty)
	props.Get("/", h.controller.ListProperties)
	props.Get("/:id", h.controller.GetProperty)
	props.Put("/:id", h.controller.UpdateProperty)
	props.Delete("/:id", h.controller.DeleteProperty)
}
