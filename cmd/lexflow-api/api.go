// Package main provides the Lexflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/gateway"
	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/registry"
	"github.com/lexflow/lexflow/pkg/services"
	"github.com/lexflow/lexflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	definitionService := services.NewDefinition(a.logger, a.persistence, a.registry)
	instanceService := services.NewInstance(a.logger, a.persistence, a.eventBus)
	triggerGateway := gateway.NewGateway(a.logger, a.persistence, a.eventBus)

	handlers := web.NewAPIHandlers(definitionService, instanceService, triggerGateway, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Lexflow API")
	})

	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
