package routes

import (
	"log"
	"os"

	controller "intakely/controllers"
	"intakely/middleware"
	"intakely/utils"
	"intakely/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func SetupIntakeRoutes(app *fiber.App, lifecycle *utils.SequenceLifecycle, db *gorm.DB) {
	clientController := controller.NewClientController(db, lifecycle, log.New(os.Stdout, "CLIENT: ", log.LstdFlags))

	// Public intake form endpoint, rate limited per IP
	intake := app.Group("/intake", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	intake.Post("/clients", middleware.IntakeRateLimiter(), clientController.CreateClient)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, store *utils.SequenceStore, lifecycle *utils.SequenceLifecycle, seqWorker *worker.SequenceWorker) {
	clientController := controller.NewClientController(db, lifecycle, log.New(os.Stdout, "CLIENT: ", log.LstdFlags))
	templateController := controller.NewTemplateController(db, log.New(os.Stdout, "TEMPLATE: ", log.LstdFlags))
	sequenceController := controller.NewSequenceController(db, store, seqWorker, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags))
	settingsController := controller.NewSettingsController(db, log.New(os.Stdout, "SETTINGS: ", log.LstdFlags))
	gmailController := controller.NewGmailController(db, log.New(os.Stdout, "GMAIL: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Client routes
	client := api.Group("/clients")
	client.Post("/", clientController.CreateClient)
	client.Get("/", clientController.GetClients)
	client.Get("/:id", clientController.GetClient)
	client.Put("/:id", clientController.UpdateClient)
	client.Delete("/:id", clientController.DeleteClient)
	client.Get("/:id/sequences", sequenceController.GetClientHistory)

	// Template routes
	template := api.Group("/templates")
	template.Get("/", templateController.GetTemplates)
	template.Get("/:id", templateController.GetTemplate)
	template.Put("/:id", templateController.UpdateTemplate)
	template.Post("/:id/reset", templateController.ResetTemplate)

	// Sequence routes
	sequence := api.Group("/sequences")
	sequence.Get("/pending", sequenceController.GetPending)
	sequence.Post("/run", sequenceController.RunNow)

	// Settings routes
	settings := api.Group("/settings")
	settings.Get("/", settingsController.GetSettings)
	settings.Put("/", settingsController.UpdateSettings)

	// Gmail connection routes
	gmail := api.Group("/gmail")
	gmail.Get("/connect", gmailController.Connect)
	gmail.Post("/disconnect", gmailController.Disconnect)
	gmail.Get("/status", gmailController.Status)

	// Google's redirect carries no staff token, so the callback must not sit
	// under the protected /api/v1 prefix. GOOGLE_REDIRECT_URI points here.
	app.Get("/oauth/gmail/callback", gmailController.Callback)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetStats)
	dashboard.Get("/upcoming", dashboardController.GetUpcoming)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, store *utils.SequenceStore, lifecycle *utils.SequenceLifecycle, seqWorker *worker.SequenceWorker) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public intake routes
	SetupIntakeRoutes(app, lifecycle, db)

	// Protected API routes
	SetupAPIRoutes(app, db, store, lifecycle, seqWorker)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
