// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config            *config.Config
	db                *gorm.DB
	redis             *redis.Client
	app               *fiber.App
	promMiddleware    *fiberprometheus.FiberPrometheus
	userRepo          repository.UserRepository
	discussionRepo    repository.DiscussionRepository
	commentRepo       repository.CommentRepository
	likeRepo          repository.LikeRepository
	categoryRepo      repository.CategoryRepository
	discussionService *service.DiscussionService
	commentService    *service.CommentService
	likeService       *service.LikeService
	votingService     *service.VotingService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("agora-api"),
		userRepo:       repository.NewUserRepository(db),
		discussionRepo: repository.NewDiscussionRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
	}

	server.discussionService = service.NewDiscussionService(
		server.discussionRepo, server.commentRepo, server.likeRepo, server.categoryRepo, server.isAdminByUserID)
	server.commentService = service.NewCommentService(
		server.commentRepo, server.discussionRepo, server.isAdminByUserID)
	server.likeService = service.NewLikeService(
		server.likeRepo, server.discussionRepo, server.commentRepo, server.isAdminByUserID)
	server.votingService = service.NewVotingService(db, server.isAdminByUserID)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS before middlewares that can short-circuit (e.g. limiter) so browser
	// clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Public browse routes
	api.Get("/categories", s.GetCategories)

	discussions := api.Group("/discussions")
	discussions.Get("/", s.GetDiscussions)
	// Specific /:id/:resource and named routes BEFORE the generic /:id route
	discussions.Get("/byCode/:code", s.GetDiscussionByCode)
	discussions.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_discussion"), s.CreateDiscussion)
	discussions.Post("/:id/like", s.AuthRequired(), s.LikeDiscussion)
	discussions.Post("/:id/comments/:commentId/like", s.AuthRequired(), s.LikeComment)
	discussions.Post("/:id/comments/:commentId/replies", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_reply"), s.CreateReply)
	discussions.Delete("/:id/comments/:commentId", s.AuthRequired(), s.DeleteComment)
	discussions.Post("/:id/comments", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	discussions.Put("/:id/toggle-top", s.AuthRequired(), s.AdminRequired(), s.ToggleTop)
	discussions.Put("/:id/toggle-visibility", s.AuthRequired(), s.AdminRequired(), s.ToggleVisibility)
	discussions.Post("/:id/increment-view-count", s.IncrementViewCount)
	discussions.Put("/:id", s.AuthRequired(), s.UpdateDiscussion)
	discussions.Delete("/:id", s.AuthRequired(), s.DeleteDiscussion)
	discussions.Get("/:id", s.GetDiscussion)

	// Poll routes
	votings := api.Group("/votings")
	votings.Get("/discussion/:id", s.GetVoting)
	votings.Put("/discussion/:id/status", s.AuthRequired(), s.SetPollState)
	votings.Post("/submit", s.AuthRequired(), middleware.RateLimit(
		s.redis, 20, time.Minute, "submit_votes"), s.SubmitVotes)
	votings.Post("/", s.AuthRequired(), s.UpsertVoting)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; the app degrades to cache-less operation.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdminByUserID(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authorization required"))
		}

		userID, ok := s.parseToken(tokenString)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid or expired token"))
		}

		// Check JTI for revocation
		token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
		if err == nil {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
					isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
					if err == nil && isBlacklisted > 0 {
						return models.RespondWithError(c, fiber.StatusUnauthorized,
							models.NewUnauthenticatedError("Token has been revoked"))
					}
				}
			}
		}

		c.Locals("userID", userID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// parseToken validates a JWT and returns the subject user ID.
func (s *Server) parseToken(tokenString string) (uint, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "agora-api" {
		return 0, false
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "agora-client" {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// optionalUserID extracts the userID from the Authorization header but does
// not enforce it. Anonymous readers get the zero identity.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0
	}
	userID, ok := s.parseToken(parts[1])
	if !ok {
		return 0
	}
	return userID
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Agora API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
