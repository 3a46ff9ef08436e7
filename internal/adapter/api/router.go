package api

import (
	"healthcare-assistant/internal/adapter/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func SetupRouter(app *fiber.App, handler *PromptHandler, m *metrics.Metrics) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(m.Middleware())

	app.Get("/health", handler.HandleHealth)
	app.Get("/metrics", m.Handler())

	// Pages
	app.Get("/", handler.HandleHome)
	app.Post("/", handler.HandleHomeSubmit)
	app.Get("/about", handler.HandleAbout)
	app.Get("/spaces", handler.HandleSpaces)
	app.Post("/spaces", handler.HandleSpacesSubmit)

	// API Versioning
	v1 := app.Group("/v1")
	v1.Get("/models", handler.HandleModels)
	v1.Post("/generate", handler.HandleGenerate)
}
