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

	graphqlapi "github.com/openshelf/openshelf/internal/library/graphql"
	httpapi "github.com/openshelf/openshelf/internal/library/http"
	"github.com/openshelf/openshelf/internal/library/service"
	"github.com/openshelf/openshelf/internal/library/store"
	"github.com/openshelf/openshelf/internal/library/store/drivers/sqlite"
	"github.com/openshelf/openshelf/pkg/jwtx"
	"github.com/openshelf/openshelf/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the library service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	authService        *service.AuthService
	catalogService     *service.CatalogService
	circulationService *service.CirculationService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "library-service",
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.initHTTP(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("library service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down library service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("library service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:        app.db,
		Sessions:     jwtx.NewIssuer(app.cfg.SessionSecret),
		CipherSecret: app.cfg.TokenSecret,
	}
	app.catalogService = &service.CatalogService{Store: app.db}
	app.circulationService = &service.CirculationService{Store: app.db}
}

func (app *Application) initHTTP() error {
	app.router = httpapi.NewRouter(BuildVersion, app.db, app.logger)
	app.router.AuthService = app.authService
	app.router.CatalogService = app.catalogService
	app.router.CirculationService = app.circulationService

	gql, err := graphqlapi.NewHandler(&graphqlapi.Resolver{
		Auth:        app.authService,
		Catalog:     app.catalogService,
		Circulation: app.circulationService,
	})
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}
	app.router.GraphQL = gql

	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}
