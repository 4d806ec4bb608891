package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/onemama/telehealth-ussd/database"
	"github.com/onemama/telehealth-ussd/internal/config"
	"github.com/onemama/telehealth-ussd/internal/handlers"
	"github.com/onemama/telehealth-ussd/internal/jobs"
	"github.com/onemama/telehealth-ussd/internal/routes"
	"github.com/onemama/telehealth-ussd/internal/services"
	"github.com/onemama/telehealth-ussd/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	config.SetupLogger(cfg)

	// Initialize storage
	var (
		store     storage.SessionStore
		ping      func() error
		storeType string
	)

	switch cfg.Sessions.Store {
	case config.StorePostgres:
		log.Info().Msg("Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}

		dbStore := storage.NewDatabaseStore(db, cfg.Sessions.Timeout)
		if err := dbStore.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		log.Info().Msg("Database migrations completed")

		store = dbStore
		ping = func() error { return database.Ping(db) }
		storeType = "PostgreSQL Database"
	default:
		store = storage.NewMemoryStore(cfg.Sessions.Timeout)
		storeType = "In-Memory"
	}

	// Optional SMS follow-ups
	opts := []services.USSDOption{}
	twilioCfg := services.TwilioConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.PhoneNumber,
	}
	notifier, err := services.NewFollowUpNotifier(cfg.Notify.SMSFollowUp, twilioCfg)
	switch {
	case errors.Is(err, services.ErrFollowUpDisabled):
		log.Info().Msg("SMS follow-ups disabled by configuration")
	case errors.Is(err, services.ErrTwilioNotConfigured):
		log.Warn().Msg("Twilio credentials not found - SMS follow-ups disabled")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to initialize Twilio service")
	default:
		opts = append(opts, services.WithNotifier(notifier))
		log.Info().Msg("Twilio SMS follow-ups enabled")
	}

	engine := services.NewMenuEngine(services.NewStaticDirectory())
	ussdService := services.NewUSSDService(store, engine, opts...)

	sweeper := jobs.NewSessionSweeper(store, cfg.Sessions.SweepInterval)
	sweeper.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "TeleHealth USSD v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	health := &handlers.HealthHandler{
		Version:        version,
		Environment:    cfg.Environment,
		StoreType:      storeType,
		Ping:           ping,
		ActiveSessions: ussdService.ActiveSessions,
	}

	routes.SetupRoutes(app,
		handlers.NewUSSDHandler(ussdService),
		handlers.NewSessionDebugHandler(store),
		health,
		routes.Options{
			DebugToken:     cfg.Debug.Token,
			AllowOpenDebug: cfg.IsDevelopment(),
			GatewaySecret:  cfg.Gateway.Secret,
		},
	)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info().Msg("Gracefully shutting down...")
		sweeper.Stop()
		_ = app.Shutdown()
	}()

	log.Info().
		Str("port", cfg.Server.Port).
		Str("storage", storeType).
		Str("environment", cfg.Environment).
		Dur("session_timeout", cfg.Sessions.Timeout).
		Msg("TeleHealth USSD starting")

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
