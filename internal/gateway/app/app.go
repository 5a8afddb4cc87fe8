package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearhaven/idgate/internal/gateway/claims"
	httpapi "github.com/clearhaven/idgate/internal/gateway/http"
	"github.com/clearhaven/idgate/internal/gateway/service"
	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/internal/gateway/store/drivers/sqlite"
	"github.com/clearhaven/idgate/pkg/jwtx"
	"github.com/clearhaven/idgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	keys     *jwtx.KeySet
	verifier jwtx.Verifier

	// Services
	directoryService *service.DirectoryService
	enhanceService   *service.EnhanceService

	// Background workers
	refresher *jwksRefresher

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// Load provider keys and build the token verifier
	ctx := context.Background()
	keys, verifier, err := InitVerifierKeys(ctx, app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.keys = keys
	app.verifier = verifier

	if cfg.JWKSURL != "" && cfg.JWKSRefresh > 0 {
		app.refresher = newJWKSRefresher(cfg.JWKSURL, cfg.JWKSRefresh, keys, app.logger)
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.refresher != nil {
		app.refresher.Start()
	}

	app.logger.Info("identity gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"issuer", app.cfg.Issuer,
		"enhancement_enabled", app.cfg.EnhancementEnabled,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the JWKS refresher
	if app.refresher != nil {
		app.refresher.Stop()
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity gateway stopped")
	return nil
}

// initDatabase initializes the directory database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	empty, err := db.Users().IsEmpty(context.Background())
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to inspect user directory: %w", err)
	}
	if empty {
		app.logger.Info("user directory is empty, records are created on first authenticated request")
	}

	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.directoryService = &service.DirectoryService{Store: app.db}

	app.enhanceService = &service.EnhanceService{
		Directory: app.directoryService,
		Mapper:    claims.NewMapper(),
		Config: service.EnhanceConfig{
			Enabled:               app.cfg.EnhancementEnabled,
			IncludeUserRoles:      app.cfg.EnhancementIncludeRoles,
			IncludeUserAttributes: app.cfg.EnhancementIncludeAttributes,
		},
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.DirectoryService = app.directoryService
	router.EnhanceService = app.enhanceService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
