package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/biblioflow/biblioflow-api/internal/config"
	"github.com/biblioflow/biblioflow-api/internal/handler"
	"github.com/biblioflow/biblioflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler *handler.StudentHandler
	BookHandler    *handler.BookHandler
	LedgerHandler  *handler.LedgerHandler
	FeedHandler    *handler.FeedHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.StudentHandler != nil {
		students := api.Group("/students")
		deps.StudentHandler.Register(students)
	}

	if deps.BookHandler != nil {
		books := api.Group("/books")
		deps.BookHandler.Register(books)
	}

	// Circulation desk lives on the api root: /api/borrow, /api/return,
	// /api/borrows.
	if deps.LedgerHandler != nil {
		deps.LedgerHandler.Register(api)
	}

	if deps.StudentHandler != nil || deps.BookHandler != nil {
		suggest := api.Group("/suggest")
		if deps.StudentHandler != nil {
			deps.StudentHandler.RegisterSuggest(suggest)
		}
		if deps.BookHandler != nil {
			deps.BookHandler.RegisterSuggest(suggest)
		}
	}

	if deps.FeedHandler != nil {
		feed := api.Group("/feed")
		deps.FeedHandler.Register(feed)
	}

	app.Get("/metrics", observability.MetricsHandler())
}
