package main

import (
	"context"
	"fmt"
	"log"

	common_api "go-iam/internal/common/api"
	"go-iam/internal/common/apperr"
	"go-iam/internal/config"
	"go-iam/internal/database"
	"go-iam/internal/features/accessrule"
	"go-iam/internal/features/assignment"
	"go-iam/internal/features/audit"
	"go-iam/internal/features/definition"
	"go-iam/internal/features/instance"
	"go-iam/internal/features/integration"
	"go-iam/internal/features/property"
	"go-iam/internal/features/synclog"
	"go-iam/internal/features/system"
	"go-iam/internal/logger"
	"go-iam/internal/middleware"
	"go-iam/pkg/utils"

	_ "go-iam/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates the Fiber app with the central error handler.
// Every handler returns errors; this is the single place they become
// HTTP responses.
func NewFiberServer(zapLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			if apperr.IsInternal(err) {
				zapLogger.Error("request failed",
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
					zap.Error(err),
				)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "internal server error",
				})
			}
			return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())
	app.Use(middleware.CorrelationMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// RunMigrations brings the schema up to date before the server starts
// taking requests.
func RunMigrations(db *database.Database) error {
	return db.DB.AutoMigrate(
		&integration.IntegrationSystem{},
		&definition.EntityDefinition{},
		&property.PropertyDefinition{},
		&instance.EntityInstance{},
		&instance.PropertyValue{},
		&accessrule.AccessRule{},
		&assignment.AccessAssignment{},
		&audit.AuditLog{},
		&synclog.SyncLog{},
	)
}

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// @title           go-iam API
// @version         1.0
// @description     Identity and access data synchronization service using Fiber, Uber Fx, and GORM.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			integration.NewIntegrationRepository,
			definition.NewDefinitionRepository,
			property.NewPropertyRepository,
			instance.NewInstanceRepository,
			accessrule.NewRuleRepository,
			assignment.NewAssignmentRepository,
			synclog.NewSyncLogRepository,

			audit.NewAuditService,
			integration.NewIntegrationService,
			definition.NewDefinitionService,
			property.NewPropertyService,
			instance.NewInstanceService,
			accessrule.NewRuleService,
			assignment.NewAssignmentService,
			synclog.NewSyncLogService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s audit.AuditService) audit.Recorder { return s },
			func(r definition.DefinitionRepository) integration.DefinitionCounter { return r },
			func(r integration.IntegrationRepository) definition.SystemFinder { return r },
			func(r definition.DefinitionRepository) property.DefinitionFinder { return r },
			func(r definition.DefinitionRepository) instance.DefinitionFinder { return r },
			func(r property.PropertyRepository) instance.PropertyCatalog { return r },
			func(r assignment.AssignmentRepository) instance.AssignmentChecker { return r },
			func(r instance.InstanceRepository) assignment.InstanceFinder { return r },
			func(r integration.IntegrationRepository) assignment.SystemFinder { return r },
			func(r integration.IntegrationRepository) accessrule.SystemFinder { return r },
			func(r integration.IntegrationRepository) synclog.SyncTarget { return r },
			func(r definition.DefinitionRepository) synclog.DefinitionFinder { return r },

			// Initialize Controller
			audit.NewAuditController,
			integration.NewIntegrationController,
			definition.NewDefinitionController,
			property.NewPropertyController,
			instance.NewInstanceController,
			accessrule.NewRuleController,
			assignment.NewAssignmentController,
			synclog.NewSyncLogController,

			// Initialize API Routes
			AsRoute(audit.NewAuditApi),
			AsRoute(integration.NewIntegrationApi),
			AsRoute(definition.NewDefinitionApi),
			AsRoute(property.NewPropertyApi),
			AsRoute(instance.NewInstanceApi),
			AsRoute(accessrule.NewRuleApi),
			AsRoute(assignment.NewAssignmentApi),
			AsRoute(synclog.NewSyncLogApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RunMigrations,
			RegisterAllRoutesWithAnnotation,
			StartServer,
		),
	)

	app.Run()
}
