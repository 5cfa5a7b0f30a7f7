// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"print-service/internal/config"
	"print-service/internal/database"
	"print-service/internal/handler"
	"print-service/internal/printer"
	"print-service/internal/queue"
	"print-service/internal/registry"
	"print-service/internal/repository"
	"print-service/internal/routes"
	"print-service/internal/service"
	"print-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Core components
	registry *registry.Registry
	queue    *queue.Queue

	// Services
	printService *service.PrintService

	// WebSocket handler doubles as the job event sink
	wsHandler *handler.WebSocketHandler

	// Repositories
	printerRepo repository.PrinterRepository
	jobLogRepo  repository.JobLogRepository
}

// @title Print Service API
// @version 1.0.0
// @description CloudPRNT print job orchestration and receipt encoding for restaurant ordering
// @termsOfService http://swagger.io/terms/

// @contact.name Print Service API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8090
// @BasePath /api/v1
func main() {
	// Initialize application
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Start the application
	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create service logger
	serviceLogger := utils.NewServiceLogger(logger, "print-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	// Initialize components
	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeQueue(); err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase sets up the optional persistence layer. The service runs
// fully from memory when the database is disabled.
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, running in-memory only")
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	app.database = db

	migrator := database.NewMigrator(db, app.logger, &app.config.Database)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.printerRepo = repository.NewPrinterRepository(db, app.logger)
	app.jobLogRepo = repository.NewJobLogRepository(db, app.logger)

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeQueue builds the printer registry, the receipt formatters and
// the in-memory job queue
func (app *Application) initializeQueue() error {
	app.registry = registry.NewRegistry(app.logger)

	brand := printer.Branding{
		Name:    app.config.Receipt.Name,
		Tagline: app.config.Receipt.Tagline,
		Address: app.config.Receipt.Address,
		Phone:   app.config.Receipt.Phone,
		Website: app.config.Receipt.Website,
		QRLink:  app.config.Receipt.QRLink,
	}

	queueConfig := queue.Config{
		ConfirmGrace: app.config.Queue.ConfirmGrace,
		StaleAfter:   app.config.Queue.StaleAfter,
	}

	app.queue = queue.NewQueue(app.registry, printer.Formatters(brand), queueConfig, app.logger)

	app.logger.Info("Job queue initialized",
		zap.Duration("confirm_grace", queueConfig.ConfirmGrace),
		zap.Duration("stale_after", queueConfig.StaleAfter),
	)
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	serviceLogger := utils.NewServiceLogger(app.logger, "print-service")

	app.printService = service.NewPrintService(
		app.queue,
		app.registry,
		app.printerRepo,
		app.jobLogRepo,
		serviceLogger,
	)

	app.wsHandler = handler.NewWebSocketHandler(app.logger)
	app.printService.SetEventSink(app.wsHandler)

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	// Create router
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.printService,
		app.wsHandler,
	)

	// Setup router with all routes
	router := routerManager.SetupRouter()

	// Create HTTP server
	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)

	return nil
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	// Start the queue sweeper
	go app.startQueueSweeper()

	app.logger.Info("Background services started")
}

// startQueueSweeper reclaims finished and abandoned jobs on an interval
func (app *Application) startQueueSweeper() {
	ticker := time.NewTicker(app.config.Queue.SweepInterval)
	defer ticker.Stop()

	app.logger.Info("Queue sweeper started",
		zap.Duration("interval", app.config.Queue.SweepInterval),
	)

	for range ticker.C {
		if removed := app.queue.Sweep(time.Now()); removed > 0 {
			app.logger.Info("Queue sweep completed", zap.Int("removed", removed))
		}
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	// Create channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for signal
	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform graceful shutdown
	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "print-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Close database connection
	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	// Flush logger
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}

	app.logger.Info("Application shutdown completed")
}

func (app *Application) Start() error {
	// Start server in goroutine
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Start background services
	app.startBackgroundServices()

	// Wait for interrupt signal
	app.waitForShutdown()

	return nil
}
