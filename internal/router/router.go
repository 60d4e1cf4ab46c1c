package router

import (
	"time"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/handlers"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	loginURL         = "/auth/login/"
	indexCachePrefix = "index_page"
)

// Dependencies are the stores and services the routes are built from.
type Dependencies struct {
	Postgres      *gorm.DB
	Sessions      sessions.Store
	JWTSecret     string
	Firebase      middleware.IDTokenVerifier
	Cache         cache.Store
	IndexCacheTTL time.Duration
	Media         media.Store
}

// SetupRoutes migrates the schema, builds every handler and registers its routes.
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	if err := repositories.AutoMigrate(deps.Postgres); err != nil {
		return err
	}
	log.Info("PostgreSQL auto-migrations completed for all models.")

	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	groupRepo := repositories.NewPostgresGroupRepository(deps.Postgres)
	postRepo := repositories.NewPostgresPostRepository(deps.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)

	auth := middleware.NewAuth(deps.Sessions, userRepo, deps.JWTSecret, deps.Firebase)
	loginRequired := middleware.LoginRequired(loginURL)

	site := e.Group("", auth.LoadUser())

	authHandler := handlers.NewAuthHandler(userRepo, auth, deps.Firebase)
	authHandler.RegisterAuthRoutes(site.Group("/auth"))
	log.Info("Auth routes configured.")

	postHandler := handlers.NewPostHandler(postRepo, groupRepo, userRepo, commentRepo, followRepo, deps.Media)
	postHandler.RegisterPostRoutes(site, loginRequired, cache.Page(deps.Cache, deps.IndexCacheTTL, indexCachePrefix))
	log.Info("Post routes configured.")

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo)
	commentHandler.RegisterCommentRoutes(site, loginRequired)
	log.Info("Comment routes configured.")

	followHandler := handlers.NewFollowHandler(followRepo, userRepo, postRepo)
	followHandler.RegisterFollowRoutes(site, loginRequired)
	log.Info("Follow routes configured.")

	mediaHandler := handlers.NewMediaHandler(deps.Media)
	mediaHandler.RegisterMediaRoutes(site)
	log.Info("Media routes configured.")

	log.Info("All routes configured.")
	return nil
}
