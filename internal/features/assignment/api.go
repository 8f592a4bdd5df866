package assignment

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AssignmentApi struct {
	controller *AssignmentController
	config     *config.Config
}

func NewAssignmentApi(controller *AssignmentController, config *config.Config) *AssignmentApi {
	return &AssignmentApi{
		controller: controller,
		config:     config,
	}
}

func (h *AssignmentApi) Setup(app *fiber.App) {
	assignments := app.Group("/api/access-assignments", middleware.AuthMiddleware(h.config.SkipAuth))

	assignments.Post("/", h.controller.CreateAssignment)
	assignments.Get("/", h.controller.ListAssignments)
	assignments.Get("/:id", h.controller.GetAssignment)
	assignments.Put("/:id", h.controller.UpdateAssignment)
	assignments.Delete("/:id", h.controller.DeleteAssignment)
}
