package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ggorockee/storemaps/internal/cache"
	"github.com/ggorockee/storemaps/internal/config"
	"github.com/ggorockee/storemaps/internal/database"
	"github.com/ggorockee/storemaps/internal/handlers"
	applogger "github.com/ggorockee/storemaps/internal/logger"
	"github.com/ggorockee/storemaps/internal/middleware"
	"github.com/ggorockee/storemaps/internal/places"
	"github.com/ggorockee/storemaps/internal/services"
	"github.com/ggorockee/storemaps/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

// @title StoreMaps API
// @version 1.0.0
// @description Store locator API with hybrid search fallback
// @host api.store-maps.com
// @BasePath /v1
// @schemes https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	if err := applogger.Init(); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
	}
	defer applogger.Sync()

	// Initialize OpenTelemetry Tracer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracerShutdown, err := telemetry.InitTracer(ctx, "storemaps-api", cfg.SigNozEndpoint)
	if err != nil {
		log.Printf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// Initialize OpenTelemetry Metrics
	meterShutdown, err := telemetry.InitMeter(ctx, "storemaps-api", cfg.SigNozEndpoint)
	if err != nil {
		log.Printf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		if err := meterShutdown(context.Background()); err != nil {
			log.Printf("Error shutting down metrics: %v", err)
		}
	}()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	go database.StartConnectionPoolMetricsCollector(ctx, db.DB, 30*time.Second)

	// Result cache is constructed here and injected everywhere it is
	// needed; the cleanup ticker dies with the process context.
	resultCache := cache.New(cfg.CacheMaxEntries, cfg.CacheTTL)
	go resultCache.StartCleanupLoop(ctx, cfg.CacheCleanupInterval)

	// Collaborators and services
	placesClient := places.New(cfg.GooglePlacesAPIKey, time.Duration(cfg.PlacesTimeoutSec)*time.Second, cfg.PlacesRatePerSecond)
	storeService := services.NewStoreService(db)
	searchService := services.NewSearchService(resultCache, storeService, placesClient, cfg.PlacesRadiusMeters)
	historyService := services.NewSearchHistoryService(db)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "StoreMaps API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}","user_agent":"${ua}","error":"${error}"}` + "\n",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}))
	app.Use(telemetry.New(telemetry.Config{
		ServiceName: "storemaps-api",
	}))
	app.Use(middleware.PrometheusMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Accept, Accept-Encoding, Authorization, Content-Type, DNT, Origin, User-Agent, X-Requested-With",
		AllowCredentials: false,
		ExposeHeaders:    "Content-Length, Content-Type",
		MaxAge:           86400,
	}))

	// Setup routes
	setupRoutes(app, db, cfg, resultCache, storeService, searchService, historyService)

	// Start server
	port := cfg.ServerPort
	if port == "" {
		port = "3000"
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down server...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRoutes(
	app *fiber.App,
	db *database.DB,
	cfg *config.Config,
	resultCache *cache.ResultCache,
	storeService *services.StoreService,
	searchService *services.SearchService,
	historyService *services.SearchHistoryService,
) {
	// Prometheus scrape endpoint (internal network only)
	app.Get("/metrics", middleware.InternalOnly(), middleware.PrometheusHandler())

	// Health check endpoints for k8s probes
	app.Get("/healthz", handlers.HealthCheck)
	app.Get("/v1/healthz", handlers.HealthCheck)
	app.Get("/v1/health", handlers.HealthCheck)
	app.Get("/v1/readiness", handlers.ReadinessCheck(db))
	app.Get("/v1/liveness", handlers.LivenessCheck)

	// API v1 group
	v1 := app.Group("/v1")

	// Auth routes (no auth required)
	auth := v1.Group("/auth")
	handlers.SetupAuthRoutes(auth, db, cfg)

	// Users routes (auth required)
	users := v1.Group("/users", middleware.AuthRequired(cfg))
	handlers.SetupUserRoutes(users, handlers.NewUserHandler(db, historyService))

	// Search (works anonymously, history is attributed when authenticated)
	search := v1.Group("/search", middleware.OptionalAuth(cfg))
	handlers.SetupSearchRoutes(search, handlers.NewSearchHandler(searchService, historyService))

	// Stores: reads public, writes authenticated
	storeHandler := handlers.NewStoreHandler(storeService)
	storesPublic := v1.Group("/stores")
	storesAuthed := v1.Group("/stores", middleware.AuthRequired(cfg))
	handlers.SetupStoreRoutes(storesPublic, storesAuthed, storeHandler)

	// Admin dashboard (staff only)
	admin := v1.Group("/admin", middleware.AuthRequired(cfg), middleware.StaffRequired())
	handlers.SetupAdminRoutes(admin, handlers.NewAdminHandler(resultCache, historyService))
}
