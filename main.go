package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patient-companion-server/internal/config"
	"patient-companion-server/internal/handlers"
	"patient-companion-server/internal/imagehost"
	"patient-companion-server/internal/logger"
	"patient-companion-server/internal/messaging"
	"patient-companion-server/internal/metrics"
	"patient-companion-server/internal/middleware"
	"patient-companion-server/internal/routes"
	"patient-companion-server/internal/search"
	"patient-companion-server/internal/services"
	"patient-companion-server/internal/store"
	"patient-companion-server/internal/tracer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "patient-companion",
		Short: "Voice and SMS patient companion backend",
		RunE:  func(cmd *cobra.Command, args []string) error { return serve(cmd.Context()) },
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the agent webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create store indexes (mongo) or tables (mysql)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, zl, err := bootstrap()
			if err != nil {
				return err
			}
			defer zl.Sync()

			st, err := store.Open(ctx, cfg.Store, zl)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			zl.Info("schema ensured", zap.String("driver", cfg.Store.Driver))
			return nil
		},
	}
}

// bootstrap loads .env (if present), the config and the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, zl, nil
}

func serve(ctx context.Context) error {
	cfg, zl, err := bootstrap()
	if err != nil {
		return err
	}
	defer zl.Sync()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	st, err := store.Open(ctx, cfg.Store, zl)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	var uploader services.ImageUploader = imagehost.Disabled{}
	if cfg.Cloudinary.CloudName != "" {
		cld, err := imagehost.NewCloudinary(cfg.Cloudinary, cfg.UpstreamTimeout)
		if err != nil {
			return err
		}
		uploader = cld
	} else {
		zl.Warn("CLOUDINARY_CLOUD_NAME not set; MMS images will be rejected")
	}

	m := metrics.NewCollector("patient_companion")
	sessions := services.NewSessionService(st, m, zl.Named("session"))
	records := services.NewRecordService(st, m, zl.Named("records"))
	media := services.NewMediaService(
		messaging.NewFetcher(cfg.Twilio, cfg.UpstreamTimeout),
		uploader,
		records,
		m,
		zl.Named("media"),
	)
	searchSvc := services.NewSearchService(search.NewClient(cfg.Search, cfg.UpstreamTimeout), m, zl.Named("search"))
	callers := handlers.NewCallerResolver(sessions, cfg.RecentCallerFallback, zl)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Default(zl, m)...)

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", handlers.HeaderCallerID, middleware.HeaderRequestID}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Handlers{
		Agent:     handlers.NewAgentHandler(sessions, records, searchSvc, callers, zl.Named("agent")),
		Messaging: handlers.NewMessagingHandler(media, zl.Named("messaging")),
		Store:     st,
		Metrics:   m,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	zl.Info("server stopped")
	return nil
}
