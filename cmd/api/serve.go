package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"freightops/internal/app"
	"freightops/internal/cache"
	"freightops/internal/config"
	"freightops/internal/database"
	"freightops/internal/handler"
	"freightops/internal/logger"
	"freightops/internal/middleware"
	"freightops/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply SQL migrations before serving")
}

func serve(parent context.Context, cfg *config.Config, log *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateOnStart {
		if err := database.Migrate(cfg.Database.DSN(), log); err != nil {
			return err
		}
	}

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	log.Info("Connected to PostgreSQL successfully")

	var store cache.IdempotencyStore = cache.NewMemoryIdempotencyStore()
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer redisStore.Close()
		store = redisStore
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	services := app.NewServices(db, wsHub, cfg.JWT.Secret, cfg.JWT.Expiration, log)
	if created, err := services.Users.EnsureAdmin(ctx, cfg.HTTP.AdminUsername, cfg.HTTP.AdminPassword); err != nil {
		return err
	} else if created {
		log.Info("Bootstrap admin created", zap.String("username", cfg.HTTP.AdminUsername))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.RequestID(), logger.GinMiddleware(log.Named("http")), logger.Recovery(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept",
		middleware.IdempotencyHeader, logger.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	auth := middleware.NewAuth(cfg.JWT.Secret, cfg.IsProduction())
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret())
	})

	handler.RegisterRoutes(router.Group(""), services, handler.RouterOptions{
		Auth:           auth,
		TokenTTL:       cfg.JWT.Expiration,
		Idempotency:    store,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exited properly")
	return nil
}
