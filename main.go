package main

import (
	"context"
	"log"
	"os"
	"time"

	"intakely/config"
	"intakely/middleware"
	"intakely/routes"
	"intakely/utils"
	"intakely/worker"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "INTAKELY: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry when a DSN is configured
	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Build the outreach pipeline: store, lifecycle hooks, Gmail mailer,
	// and the scheduled worker that drains due emails.
	store := utils.NewSequenceStore(config.DB, log.New(os.Stdout, "STORE: ", log.LstdFlags))
	lifecycle := utils.NewSequenceLifecycle(config.DB, store, log.New(os.Stdout, "LIFECYCLE: ", log.LstdFlags))
	mailer := utils.NewGmailMailer(config.DB, log.New(os.Stdout, "GMAIL: ", log.LstdFlags))

	workerLogger := logrus.New()
	workerLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	sequenceWorker := worker.NewSequenceWorker(
		config.DB,
		store,
		mailer,
		workerLogger,
		config.AppConfig.SequenceInterval,
		config.AppConfig.SequenceBatchSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sequenceWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, store, lifecycle, sequenceWorker)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
