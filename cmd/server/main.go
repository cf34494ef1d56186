package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/api/handlers"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/api/middleware"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/config"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/database"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/repository"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/service"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/websocket"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/worker"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.InitWith(cfg.Log.Level, cfg.Server.AppEnv)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	redisClient, err := initRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", err)
	}
	logger.Info("Connected to Redis", "addr", cfg.GetRedisAddr())

	// Initialize repositories
	postgresRepo := repository.NewPostgresRepository(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	if err := postgresRepo.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	logger.Info("Database migrations completed")

	// Chat messages reach the database through the pool
	workerPool := worker.NewWorkerPool(cfg.Worker.Count, cfg.Worker.QueueSize, postgresRepo)
	workerPool.Start()

	hub := websocket.NewHub(redisRepo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	loc := cfg.Location()
	searchService := service.NewMatchListService(postgresRepo, service.SearchOptions{
		Location:                 loc,
		FallbackLatitude:         cfg.Search.FallbackLatitude,
		FallbackLongitude:        cfg.Search.FallbackLongitude,
		RestartOnExhaustedCursor: cfg.Search.RestartOnExhaustedCursor,
	})
	matchService := service.NewMatchService(postgresRepo, redisRepo, loc)
	courtService := service.NewCourtService(postgresRepo)
	chatService := service.NewChatService(postgresRepo, redisRepo, workerPool, loc)

	matchHandler := handlers.NewMatchHandler(searchService, matchService)
	courtHandler := handlers.NewCourtHandler(courtService)
	chatHandler := handlers.NewChatHandler(chatService)
	healthHandler := handlers.NewHealthHandler(matchService, workerPool, hub)

	app := fiber.New(fiber.Config{
		AppName:               "Tennis Match API",
		DisableStartupMessage: !cfg.IsDevelopment(),
		ErrorHandler:          handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PATCH,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: middleware.HeaderRequestID,
	}))

	auth := middleware.RequireAuth(cfg.Auth.JWTSecret)

	// Routes
	api := app.Group("/api/v1")

	api.Get("/matches", matchHandler.Search)
	api.Post("/matches", auth, matchHandler.Create)
	api.Get("/matches/:id", matchHandler.Get)
	api.Patch("/matches/:id/close", auth, matchHandler.Close)

	api.Get("/matches/:id/messages", chatHandler.List)
	api.Post("/matches/:id/messages", auth, chatHandler.Send)

	api.Get("/courts", courtHandler.Search)
	api.Get("/courts/:id", courtHandler.Get)

	api.Get("/health", healthHandler.HealthCheck)

	// WebSocket route with upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(func(c *fiberws.Conn) {
		websocket.ServeWS(hub, c)
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Tennis Match API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/matches",
				"POST /api/v1/matches",
				"GET /api/v1/matches/:id",
				"PATCH /api/v1/matches/:id/close",
				"GET /api/v1/matches/:id/messages",
				"POST /api/v1/matches/:id/messages",
				"GET /api/v1/courts",
				"GET /api/v1/courts/:id",
				"GET /api/v1/health",
				"WS /ws (WebSocket)",
			},
			"websocket_clients": hub.GetClientCount(),
		})
	})

	// Graceful shutdown with worker pool flushing
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server")

		// Stop accepting new HTTP requests first
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		cancel()

		// Flush pending chat writes
		if err := workerPool.Shutdown(30 * time.Second); err != nil {
			logger.Error("Worker pool shutdown error", "error", err)
		}

		if err := postgresRepo.Close(); err != nil {
			logger.Error("Error closing database", "error", err)
		}
		if err := redisRepo.Close(); err != nil {
			logger.Error("Error closing Redis", "error", err)
		}

		logger.Info("Server shutdown complete")
	}()

	logger.Info("Server starting", "port", cfg.Server.Port, "env", cfg.Server.AppEnv)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatal("Failed to start server", err)
	}
}

// initRedis initializes Redis connection with connection pooling
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
