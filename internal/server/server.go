// Package server contains the HTTP handlers of the rwid API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "rwid/docs" // swagger docs
	"rwid/internal/config"
	"rwid/internal/featureflags"
	"rwid/internal/identity"
	"rwid/internal/middleware"
	"rwid/internal/models"
	"rwid/internal/repository"
	"rwid/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	mu             sync.Mutex
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Set
	limiter        *middleware.RateLimiter

	accountRepo  repository.AccountRepository
	profileRepo  repository.ProfileRepository
	platformRepo repository.PlatformRepository
	postRepo     repository.PostRepository
	bookmarkRepo repository.BookmarkRepository

	authService     *service.AuthService
	platformService *service.PlatformService
	feedService     *service.FeedService
}

const globalRequestsPerMinute = 100

// NewServerWithDeps wires repositories, services and flags over an open
// database and an optional Redis client. It fails on an invalid
// FEATURE_FLAGS value.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	flags, err := featureflags.Load(cfg.FeatureFlags, defaultFlags(cfg))
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("rwid-api"),
		featureFlags:   flags,
		limiter:        middleware.NewRateLimiter(redisClient, cfg.RateLimitEnabled),
		accountRepo:    repository.NewAccountRepository(db),
		profileRepo:    repository.NewProfileRepository(db),
		platformRepo:   repository.NewPlatformRepository(db),
		postRepo:       repository.NewPostRepository(db),
		bookmarkRepo:   repository.NewBookmarkRepository(db),
	}

	server.platformService = service.NewPlatformService(server.platformRepo, server.accountRepo)
	server.feedService = service.NewFeedService(server.postRepo, server.bookmarkRepo, server.profileRepo, server.platformService)
	server.UseGoogleVerifier(identity.NewGoogleVerifier(cfg.GoogleWebClientID))

	return server, nil
}

// UseGoogleVerifier replaces the Google ID token verifier.
func (s *Server) UseGoogleVerifier(v identity.GoogleVerifier) {
	s.authService = service.NewAuthService(s.accountRepo, s.profileRepo, v, s.featureFlags)
}

// defaultFlags turns impersonation on outside production. FEATURE_FLAGS
// can still switch it off.
func defaultFlags(cfg *config.Config) map[string]string {
	if cfg.IsProduction() {
		return nil
	}
	return map[string]string{featureflags.Impersonation: "on"}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8081,http://localhost:19006"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Per-IP ceiling on everything except preflights; tighter per-action
	// budgets come from s.limiter on the routes themselves.
	app.Use(limiter.New(limiter.Config{
		Max:        globalRequestsPerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "rwid API Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/login", s.limiter.Handler(middleware.LoginRule), s.Login)
	auth.Post("/google", s.limiter.Handler(middleware.LoginRule), s.GoogleLogin)
	auth.Get("/me", s.AuthRequired(), s.Me)
	auth.Post("/logout", s.AuthOptional(), s.Logout)

	profiles := api.Group("/profiles", s.AuthRequired())
	profiles.Get("/:uid", s.GetProfile)
	profiles.Put("/:uid", s.CreateProfile)

	platforms := api.Group("/platforms")
	platforms.Get("/", s.GetPlatforms)
	platforms.Get("/:slug", s.GetPlatform)
	platforms.Get("/:slug/communities", s.GetCommunities)
	platforms.Get("/:slug/communities/:id", s.AuthOptional(), s.GetCommunity)
	platforms.Get("/:slug/communities/:id/posts", s.AuthOptional(), s.FeedLoaders(), s.GetFeed)
	platforms.Post("/:slug/communities/:id/posts", s.AuthRequired(),
		s.limiter.Handler(middleware.PostRule), s.CreatePost)

	protected := api.Group("", s.AuthRequired())
	protected.Post("/posts/:id/like", s.limiter.Handler(middleware.ReactionRule), s.TogglePostLike)
	protected.Post("/posts/:id/bookmark", s.limiter.Handler(middleware.ReactionRule), s.TogglePostBookmark)
	protected.Get("/bookmarks", s.GetBookmarks)
	protected.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the
// app degrades to uncached reads without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.JWTAuth(middleware.JWTConfig{
		Secret:    s.config.JWTSecret,
		IsRevoked: s.isRevoked,
	})
}

// AuthOptional identifies the caller when a valid token is present and
// otherwise serves the request anonymously.
func (s *Server) AuthOptional() fiber.Handler {
	return middleware.JWTAuth(middleware.JWTConfig{
		Secret:    s.config.JWTSecret,
		IsRevoked: s.isRevoked,
		Optional:  true,
	})
}

// FeedLoaders attaches per-request batched lookups for the viewer.
func (s *Server) FeedLoaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if uid, ok := middleware.UserID(c); ok {
			loaders := service.NewFeedLoaders(s.postRepo, s.bookmarkRepo, uid)
			c.SetUserContext(service.WithFeedLoaders(c.UserContext(), loaders))
		}
		return c.Next()
	}
}

func revocationKey(jti string) string {
	return "blacklist:" + jti
}

func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "rwid API",
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// handleError renders errors no handler turned into a response. Fiber
// errors keep their status; anything else is a logged 500.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.NewApp()
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()
	middleware.Logger.Info("listening", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown drains HTTP, then closes the database and Redis. Every step runs
// even when an earlier one fails.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	app := s.app
	s.mu.Unlock()

	var errs []error
	if app != nil {
		if err := app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
