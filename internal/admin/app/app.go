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

	httpapi "github.com/fernwebstudio/siteadmin/internal/admin/http"
	"github.com/fernwebstudio/siteadmin/internal/admin/service"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/internal/admin/store/drivers/cryptofile"
	"github.com/fernwebstudio/siteadmin/internal/admin/tokens"
	"github.com/fernwebstudio/siteadmin/pkg/cryptox"
	"github.com/fernwebstudio/siteadmin/pkg/jwtx"
	"github.com/fernwebstudio/siteadmin/pkg/slogx"
)

// BuildVersion is overridden by release builds via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the admin service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	registry *tokens.Registry
	verifier *jwtx.HS256

	// Services
	userService  *service.UserService
	resetService *service.ResetService
	sweeper      *service.Sweeper

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "siteadmin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.db = cryptofile.NewStore(cfg.UsersFile, cryptox.NewCipher(cfg.EncryptionKey))
	app.registry = tokens.NewRegistry()
	app.verifier = jwtx.NewHS256(cfg.JWTSecret, cfg.Issuer)

	// Fail fast if the credential file exists but cannot be read back.
	if err := app.db.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("credential store unreadable: %w", err)
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("admin service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		// The server died on its own; the sweeper and store still need
		// an orderly stop before reporting the failure.
		app.sweeper.Stop()
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error("error closing store", "error", cerr)
		}
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("admin service stopped")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{
		Store:    app.db,
		Registry: app.registry,
	}
	app.resetService = &service.ResetService{
		Store:    app.db,
		Registry: app.registry,
		BaseURL:  app.cfg.ResetBaseURL,
		TokenTTL: app.cfg.TokenTTL,
	}
	app.sweeper = service.NewSweeper(app.registry, app.logger, app.cfg.SweepInterval)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.UserService = app.userService
	router.ResetService = app.resetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
