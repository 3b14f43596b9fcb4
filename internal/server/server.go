// Package server contains the HTTP handlers for the content-graph API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vibez/internal/cache"
	"vibez/internal/config"
	"vibez/internal/database"
	"vibez/internal/media"
	"vibez/internal/middleware"
	"vibez/internal/models"
	"vibez/internal/repository"
	"vibez/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// maxUploadFiles bounds the number of media files accepted per request.
const maxUploadFiles = 4

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	identity       middleware.IdentityProvider
	quota          *middleware.WriteQuota
	validate       *validator.Validate
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	likeRepo       repository.LikeRepository
	hashtagRepo    repository.HashtagRepository
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
}

// NewServer connects to the database and Redis and builds a Server that
// stores media through uploader.
func NewServer(cfg *config.Config, uploader media.BlobUploader) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	redisClient := cache.Connect(context.Background(), cfg.RedisURL)

	identity := middleware.NewJWTIdentity(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, redisClient)
	return NewServerWithDeps(cfg, db, redisClient, identity, uploader)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	identity middleware.IdentityProvider,
	uploader media.BlobUploader,
) (*Server, error) {
	if identity == nil {
		return nil, errors.New("identity provider is required")
	}
	if uploader == nil {
		return nil, errors.New("blob uploader is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("vibez-api"),
		identity:       identity,
		quota:          middleware.NewWriteQuota(redisClient, cfg.IsProduction()),
		validate:       newValidator(),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		hashtagRepo:    repository.NewHashtagRepository(db),
	}

	threads := service.NewThreadAssembler(s.commentRepo, s.likeRepo)
	resolver := media.NewResolver(uploader, cfg.BlobBackend)
	s.postService = service.NewPostService(s.postRepo, s.hashtagRepo, threads, resolver, cfg.EditWindow())
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, threads, resolver)
	s.likeService = service.NewLikeService(s.likeRepo, s.postRepo, s.commentRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
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

	auth := middleware.AuthRequired(s.identity)
	api := app.Group("/api")

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", auth, s.quota.Limit("create_post", 30, time.Minute), s.CreatePost)
	posts.Get("/hashtag/:hashtag", s.GetPostsByHashtag)
	// Specific /:id/:resource routes before the generic /:id routes.
	posts.Get("/:id/like", auth, s.GetPostLike)
	posts.Post("/:id/like", auth, s.quota.Limit("like", 120, time.Minute), s.LikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", auth, s.quota.Limit("create_comment", 60, time.Minute), s.CreateComment)
	posts.Post("/:id/comments/:parentId/replies", auth, s.quota.Limit("create_comment", 60, time.Minute), s.CreateReply)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Patch("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id/like", auth, s.GetCommentLike)
	comments.Post("/:id/like", auth, s.quota.Limit("like", 120, time.Minute), s.LikeComment)
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", auth, s.UpdateComment)
	comments.Delete("/:id", auth, s.DeleteComment)
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "vibez API",
		BodyLimit: maxUploadFiles*s.config.MediaMaxUploadBytes() + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.App().Listen(":" + s.config.Port)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and, when configured, Redis respond.
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

	// Redis only backs caching and rate limits, so its absence is not fatal.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
