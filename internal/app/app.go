// Package app initializes and runs the recipe service.
// It configures logging, storage, token signing and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/recipes/internal/auth"
	"github.com/patric-chuzhbe/recipes/internal/config"
	"github.com/patric-chuzhbe/recipes/internal/db/jsondb"
	"github.com/patric-chuzhbe/recipes/internal/db/memorystorage"
	"github.com/patric-chuzhbe/recipes/internal/db/postgresdb"
	"github.com/patric-chuzhbe/recipes/internal/db/storage"
	"github.com/patric-chuzhbe/recipes/internal/ipchecker"
	"github.com/patric-chuzhbe/recipes/internal/logger"
	"github.com/patric-chuzhbe/recipes/internal/models"
	"github.com/patric-chuzhbe/recipes/internal/router"
	"github.com/patric-chuzhbe/recipes/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the recipe service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - reading the token signing secret
// - selecting and setting up storage
// - setting up the router and middleware
func New() (*App, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	return newWithConfig(cfg)
}

func newWithConfig(cfg *config.Config) (*App, error) {
	var err error
	app := &App{cfg: cfg}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	secret, err := auth.LoadSecret(app.cfg.SecretKeyFile)
	if err != nil {
		return nil, fmt.Errorf("in internal/app/app.go/newWithConfig(): error while `auth.LoadSecret()` calling: %w", err)
	}

	checker, err := ipchecker.New(
		app.cfg.TrustedSubnet,
		ipchecker.WithTrustProxyHeaders(app.cfg.TrustProxyHeaders),
	)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.NewUsers(app.db),
		service.NewIngredients(app.db),
		service.NewRecipes(app.db),
		auth.New(secret, app.cfg.BaseURL, app.cfg.TokenTTL),
		app.db,
		checker,
		router.WithAllowedOrigins(app.cfg.AllowedOrigins),
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and closes the storage upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if closeErr := a.db.Close(); closeErr != nil {
			logger.Log.Infoln("Error closing the storage:", closeErr)
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
