// Package server contains the HTTP handlers for the social feed API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"socialfeed/internal/cache"
	"socialfeed/internal/config"
	"socialfeed/internal/events"
	"socialfeed/internal/featureflags"
	"socialfeed/internal/middleware"
	"socialfeed/internal/models"
	"socialfeed/internal/notifications"
	"socialfeed/internal/repository"
	"socialfeed/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	events         events.Publisher
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	followService  *service.FollowService
	feedService    *service.FeedService
	likeService    *service.LikeService
	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, which disables caching, notifications and Redis rate limits.
// pub may be nil, which discards domain events.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, pub events.Publisher) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}
	if pub == nil {
		pub = events.Nop{}
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	pub = events.WithFlags(pub, flags)
	c := cache.New(redisClient)
	notifier := notifications.NewNotifier(redisClient)
	pagination := service.Pagination{DefaultSize: cfg.FeedDefaultPageSize, MaxSize: cfg.FeedMaxPageSize}

	userRepo := repository.NewUserRepository(db, c)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	shutdownCtx, shutdownFn := context.WithCancel(context.Background())

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialfeed-api"),
		featureFlags:   flags,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		events:         pub,
		shutdownCtx:    shutdownCtx,
		shutdownFn:     shutdownFn,
		followService:  service.NewFollowService(followRepo, userRepo, c, notifier, pub),
		feedService:    service.NewFeedService(postRepo, followRepo, c, flags, pagination),
		likeService:    service.NewLikeService(likeRepo, postRepo, commentRepo, notifier, pub),
		postService:    service.NewPostService(postRepo, userRepo, pub, pagination),
		commentService: service.NewCommentService(commentRepo, postRepo, pagination),
		userService:    service.NewUserService(userRepo),
	}, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "socialfeed",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
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
			})
		},
	}))
}

// SetupRoutes configures all routes for the application. Routes that read
// /api/users/me style literals are registered before their /:id siblings.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	auth := s.AuthRequired()

	// Real-time notifications
	api.Post("/ws/ticket", auth, s.IssueWSTicket)
	app.Get("/ws/notifications", auth, requireUpgrade, s.NotificationsSocket())

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "socialfeed metrics"}))

	// Follow graph
	api.Get("/follow/:userId", auth, s.GetFollowStatus)
	api.Post("/follow/:userId", auth, s.writeLimit("follow", 30), s.Follow)
	api.Post("/unfollow/:userId", auth, s.writeLimit("follow", 30), s.Unfollow)

	// Feed
	feed := api.Group("/feed")
	feed.Get("/trending", auth, s.GetTrendingFeed)
	feed.Get("/", auth, s.GetFeed)

	// Posts
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", auth, s.writeLimit("create_post", 10), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", auth, s.writeLimit("create_comment", 20), s.CreateComment)
	posts.Get("/:id/like", auth, s.GetPostLike)
	posts.Post("/:id/like", auth, s.writeLimit("like", 60), s.LikePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	// Comments
	comments := api.Group("/comments")
	comments.Get("/:id/replies", s.GetReplies)
	comments.Get("/:id/like", auth, s.GetCommentLike)
	comments.Post("/:id/like", auth, s.writeLimit("like", 60), s.LikeComment)
	comments.Put("/:id", auth, s.UpdateComment)
	comments.Delete("/:id", auth, s.DeleteComment)

	// Users
	users := api.Group("/users")
	users.Post("/register", s.strictLimit("register", 5), s.Register)
	users.Get("/me", auth, s.GetMyProfile)
	users.Put("/me", auth, s.UpdateMyProfile)
	users.Get("/suggestions", auth, s.GetSuggestions)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUserProfile)
}

// writeLimit applies a per-user Redis rate limit of limit requests per minute.
// A Redis outage lets requests through.
func (s *Server) writeLimit(resource string, limit int) fiber.Handler {
	return s.rateLimit(resource, limit, middleware.FailOpen)
}

// strictLimit is writeLimit for abuse-prone endpoints: a Redis outage rejects with 503.
func (s *Server) strictLimit(resource string, limit int) fiber.Handler {
	return s.rateLimit(resource, limit, middleware.FailClosed)
}

func (s *Server) rateLimit(resource string, limit int, policy middleware.FailPolicy) fiber.Handler {
	return middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Limit:    limit,
		Window:   time.Minute,
		Policy:   policy,
		Resource: resource,
	})
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so a
// missing client is reported as disabled rather than unhealthy.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

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

// StartNotifications forwards Redis user notifications to open websockets
// until Shutdown. Without Redis, sockets connect but receive nothing.
func (s *Server) StartNotifications() error {
	if s.redis == nil {
		return nil
	}
	return s.hub.StartWiring(s.shutdownCtx, s.notifier)
}

// Start listens on the configured port and blocks until the listener stops.
func (s *Server) Start() error {
	if err := s.StartNotifications(); err != nil {
		middleware.Logger.Warn("notification wiring failed", slog.String("error", err.Error()))
	}
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server, closes notification sockets and
// releases the event publisher.
// The database and Redis clients belong to the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	s.shutdownFn()
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
