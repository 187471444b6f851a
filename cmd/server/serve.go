package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/explorer"
	"github.com/damacus/iron-explorer/internal/handlers"
	customMiddleware "github.com/damacus/iron-explorer/internal/middleware"
	"github.com/damacus/iron-explorer/internal/observability"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/store"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Override server.address")
}

// application holds what the HTTP server is built from.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	auth    *services.AuthService
	factory store.Factory
	engine  *explorer.Engine
	metrics *observability.Metrics
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}

	auth, err := services.NewAuthService(cfg.Session.Key, logger)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	app := &application{
		cfg:     cfg,
		logger:  logger,
		auth:    auth,
		factory: newFactory(cfg, metrics),
		engine:  newEngine(cfg, logger),
		metrics: metrics,
	}
	if static := staticCredentials(cfg); static != nil {
		logger.Info("static credentials configured", zap.Stringer("creds", static))
	}

	e := newServer(app)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		errCh <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}

func newServer(app *application) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	authHandler := handlers.NewAuthHandler(app.auth, app.factory, defaultCredentials(app.cfg), app.logger)
	bucketsHandler := handlers.NewBucketsHandler(app.factory, app.engine, app.logger)

	// Middleware
	e.Use(customMiddleware.RequestID())
	e.Use(customMiddleware.RequestLogger(app.logger.Named("http")))
	e.Use(middleware.Recover())
	if app.cfg.Metrics.Enabled {
		e.Use(app.metrics.Middleware())
	}
	e.Use(customMiddleware.SecurityHeaders())
	e.Use(customMiddleware.CSRF())
	// Apply auth middleware globally - it will skip public routes internally
	e.Use(customMiddleware.AuthMiddleware(app.auth, staticCredentials(app.cfg), app.logger))

	// Public Routes (auth middleware will skip these)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	if app.cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(app.metrics.Handler()))
	}
	e.POST("/connect", authHandler.Connect)
	e.POST("/disconnect", authHandler.Disconnect)

	// Object Browser
	api := e.Group("/api")
	api.GET("/buckets", bucketsHandler.ListBuckets)
	api.GET("/buckets/:bucket/objects", bucketsHandler.ListObjects)
	api.GET("/buckets/:bucket/search", bucketsHandler.Search)
	api.GET("/buckets/:bucket/count", bucketsHandler.Count)
	api.POST("/buckets/:bucket/folders", bucketsHandler.CreateFolder)
	api.POST("/buckets/:bucket/upload", bucketsHandler.Upload)
	api.POST("/buckets/:bucket/rename", bucketsHandler.Rename)
	api.POST("/buckets/:bucket/delete", bucketsHandler.Delete)
	api.POST("/buckets/:bucket/public", bucketsHandler.MakePublic)
	api.GET("/buckets/:bucket/download-url", bucketsHandler.DownloadURL)
	api.GET("/buckets/:bucket/content", bucketsHandler.Content)

	return e
}
