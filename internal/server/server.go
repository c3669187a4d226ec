// Package server contains the HTTP handlers for the blogging API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/summarizer"

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

// localCacheSizeMB bounds the in-process tag list cache.
const localCacheSizeMB = 16

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	localCache     *cache.Local

	authService       *service.AuthService
	postService       *service.PostService
	commentService    *service.CommentService
	engagementService *service.EngagementService
	tagService        *service.TagService
	summaryService    *service.SummaryService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	tagRepo := repository.NewTagRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	// Events are published only when Redis is available.
	var events service.EventPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		events = server.notifier
	}

	local, err := cache.NewLocal(localCacheSizeMB, cfg.LocalCacheTTL())
	if err != nil {
		middleware.Logger.Warn("local cache disabled", slog.String("error", err.Error()))
	}
	server.localCache = local
	tagLists := cache.NewLayered("tags", local, cache.TagListTTL)

	server.authService = service.NewAuthService(userRepo, cfg.PasswordResetTTL())
	server.postService = service.NewPostService(postRepo, events)
	server.commentService = service.NewCommentService(commentRepo, postRepo, events)
	server.engagementService = service.NewEngagementService(engagementRepo, postRepo)
	server.tagService = service.NewTagService(tagRepo, postRepo, tagLists)
	server.summaryService = service.NewSummaryService(postRepo, server.newGenerator())

	return server, nil
}

// newGenerator builds the AI summarizer. A missing provider leaves the
// summary endpoint answering with a configuration error.
func (s *Server) newGenerator() summarizer.Generator {
	if !s.featureFlags.Declared(featureflags.AISummary) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, err := summarizer.New(ctx, s.config)
	if err != nil {
		middleware.Logger.Warn("AI summarizer unavailable",
			slog.String("provider", s.config.AIProvider), slog.String("error", err.Error()))
		return nil
	}
	return g
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Spans first so the trace ID reaches the request context.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global per-IP ceiling. The named Redis limits below are the real policy.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitError("Too many requests, please try again later"))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkwell API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, middleware.AuthLimit), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, middleware.AuthLimit), s.Login)
	auth.Post("/refresh", middleware.RateLimit(s.redis, middleware.AuthLimit), s.Refresh)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/profile", s.AuthRequired(), s.GetProfile)
	auth.Put("/profile", s.AuthRequired(), s.UpdateProfile)
	auth.Put("/change-password", s.AuthRequired(), s.ChangePassword)
	auth.Post("/forgot-password", middleware.RateLimit(s.redis, middleware.AuthLimit), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(s.redis, middleware.AuthLimit), s.ResetPassword)

	write := middleware.RateLimit(s.redis, middleware.WriteLimit)

	// Define specific /posts/... routes BEFORE generic /:id route
	posts := api.Group("/posts")
	posts.Get("/", s.OptionalAuth(), s.GetPosts)
	posts.Get("/my/posts", s.AuthRequired(), s.GetMyPosts)
	posts.Get("/my/stats", s.AuthRequired(), s.GetMyStats)
	posts.Get("/liked", s.AuthRequired(), s.GetLikedPosts)
	posts.Get("/saved", s.AuthRequired(), s.GetSavedPosts)
	posts.Post("/", s.AuthRequired(), write, s.CreatePost)
	posts.Post("/:id/like", s.AuthRequired(), write, s.LikePost)
	posts.Delete("/:id/like", s.AuthRequired(), write, s.UnlikePost)
	posts.Post("/:id/save", s.AuthRequired(), write, s.SavePost)
	posts.Delete("/:id/save", s.AuthRequired(), write, s.UnsavePost)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Put("/:id", s.AuthRequired(), write, s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), write, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/post/:postId", s.GetPostComments)
	comments.Get("/my", s.AuthRequired(), s.GetMyComments)
	comments.Post("/", s.AuthRequired(), write, s.CreateComment)
	comments.Put("/:id", s.AuthRequired(), write, s.UpdateComment)
	comments.Delete("/:id", s.AuthRequired(), write, s.DeleteComment)

	tags := api.Group("/tags")
	tags.Get("/", s.GetTags)
	tags.Get("/:id", s.OptionalAuth(), s.GetTag)
	tags.Post("/", s.AuthRequired(), write, s.CreateTag)

	ai := api.Group("/ai", s.AuthRequired(), s.FeatureRequired(featureflags.AISummary))
	ai.Post("/summarize/:postId", middleware.RateLimit(s.redis, middleware.AILimit), s.SummarizePost)

	api.Get("/features", s.OptionalAuth(), s.GetFeatures)
	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without
// it the API runs uncached and rate limits fail open.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
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

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders errors that escape handlers, including Fiber's own
// 404 and 405 responses.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Code == fiber.StatusNotFound {
			msg = "Route not found"
		}
		return c.Status(fe.Code).JSON(models.Envelope{Success: false, Message: msg})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.localCache != nil {
		if err := s.localCache.Close(); err != nil {
			middleware.Logger.Error("error closing local cache", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
