package main

import (
	"context"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/handlers"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/monitoring"
	"github.com/anonto42/yatube/internal/router"
	"github.com/anonto42/yatube/internal/views"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/pkg/firebase"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	config.SetupLogging(cfg)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx := context.Background()

	// Firebase login is optional
	var verifier middleware.IDTokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		authClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		verifier = authClient
	}

	// Page cache: Redis when configured, otherwise process memory
	var pageCache cache.Store = cache.NewMemoryStore(cfg.CacheMaxEntries, cfg.IndexCacheTTL)
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		pageCache = cache.NewRedisStore(redisClient, "yatube:cache")
		log.Info("Using Redis page cache.")
	}

	// Post images: GridFS when MongoDB is configured, otherwise MEDIA_ROOT
	var images media.Store = media.NewDiskStore(cfg.MediaRoot)
	if db.Mongo != nil {
		images, err = media.NewGridFSStore(db.Mongo.Database(cfg.MongoDatabase))
		if err != nil {
			log.Fatalf("Failed to open GridFS bucket: %v", err)
		}
		log.Info("Storing images in GridFS.")
	}

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler

	monitoring.Register(prometheus.DefaultRegisterer)
	config.SetupMiddleware(e)
	e.Use(monitoring.Middleware())

	// Setup routes and dependencies
	err = router.SetupRoutes(e, router.Dependencies{
		Postgres:      db.Postgres,
		Sessions:      middleware.NewSessionStore(cfg.SessionSecret, cfg.IsProduction()),
		JWTSecret:     cfg.JWTSecret,
		Firebase:      verifier,
		Cache:         pageCache,
		IndexCacheTTL: cfg.IndexCacheTTL,
		Media:         images,
	})
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
