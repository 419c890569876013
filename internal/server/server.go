// Package server contains the HTTP and WebSocket handlers of the admin console API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/cache"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/config"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/database"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/featureflags"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/middleware"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/moderation"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/notifications"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/repository"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/session"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/views"

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
	nats           *events.NATSPublisher
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	upstream     *upstream.Client
	sessions     *session.Manager
	workspaces   *views.Registry
	auditRepo    repository.AuditRepository
	moderation   *moderation.Runner
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	now          func() time.Time
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional: sessions fall back to memory and rate limits fail open.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			observability.Logger.Warn("redis unavailable, sessions stay in memory", slog.String("error", err.Error()))
			redisClient = nil
		}
	}

	var natsPublisher *events.NATSPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err = events.ConnectNATS(events.NATSConfig{URL: cfg.NATSURL, Name: "ziogram-admin"})
		if err != nil {
			observability.Logger.Warn("nats unavailable, moderation events stay local", slog.String("error", err.Error()))
			natsPublisher = nil
		}
	}

	return newServer(cfg, db, redisClient, natsPublisher), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer owns the DB and Redis handles.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	return newServer(cfg, db, redisClient, nil), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, natsPublisher *events.NATSPublisher) *Server {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		nats:           natsPublisher,
		promMiddleware: middleware.InitMetrics("ziogram-admin"),
		upstream: upstream.NewClient(upstream.Config{
			BaseURL: cfg.UpstreamBaseURL,
			Timeout: cfg.UpstreamTimeout(),
		}),
		workspaces: views.NewRegistry(views.Options{
			PageSize:  cfg.DefaultPageSize,
			MaxImages: cfg.ProductMaxImages,
		}),
		auditRepo:    repository.NewAuditRepository(db),
		hub:          notifications.NewHub(),
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
		now:          time.Now,
	}

	var store session.Store = session.NewMemoryStore()
	if redisClient != nil {
		store = session.NewRedisStore(redisClient)
	}
	s.sessions = session.NewManager(store, session.NewIssuer(cfg.JWTSecret), cfg.SessionTTL())

	s.moderation = moderation.NewRunner(moderation.DefaultCatalog(), s.upstream, s.auditRepo, s.publisher())
	return s
}

// publisher assembles the moderation event fan-out. Without Redis the live stream is fed
// in-process.
func (s *Server) publisher() events.Publisher {
	var multi events.Multi
	if s.redis != nil {
		multi = append(multi, events.NewRedisPublisher(s.redis))
	} else {
		multi = append(multi, hubPublisher{hub: s.hub})
	}
	if s.nats != nil {
		multi = append(multi, s.nats)
	}
	return multi
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: !strings.Contains(origins, "*"),
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
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

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Ziogram Admin Metrics Dashboard",
	}))

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	api.Patch("/session/preferences", s.AuthRequired(), s.UpdatePreferences)

	admin := api.Group("/admin", s.AuthRequired())

	users := admin.Group("/users")
	users.Get("/", s.GetUsers)
	// Specific /:id/:action routes before the generic /:id route
	users.Post("/:id/block", s.BlockUser)
	users.Post("/:id/unban", s.UnbanUser)
	users.Post("/:id/toggle", s.ToggleUserBlock)
	users.Delete("/:id", middleware.RateLimit(s.redis, 30, time.Minute, "delete_user"), s.DeleteUser)

	admin.Get("/reported-users", s.GetReportedUsers)

	posts := admin.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Delete("/modal", s.ClosePostModal)
	posts.Post("/:id/like", middleware.RateLimit(s.redis, 60, time.Minute, "like"), s.LikePost)
	posts.Post("/:id/show-more", s.TogglePostExpanded)
	posts.Post("/:id/modal", s.OpenPostModal)

	products := admin.Group("/products")
	products.Get("/categories", s.GetCategories)
	products.Get("/draft", s.GetProductDraft)
	products.Patch("/draft", s.PatchProductDraft)
	products.Post("/draft/variants", s.RequireFeature(featureflags.ProductVariants), s.AddProductVariant)
	products.Delete("/draft/variants/:index", s.RequireFeature(featureflags.ProductVariants), s.RemoveProductVariant)
	products.Post("/draft/types", s.RequireFeature(featureflags.ProductVariants), s.AddProductType)
	products.Delete("/draft/types/:index", s.RequireFeature(featureflags.ProductVariants), s.RemoveProductType)
	products.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "add_product"), s.SubmitProduct)

	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/audit", s.GetAuditLog)

	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/events", s.WebSocketEventsHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   s.now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional and only reported.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	natsStatus := "unavailable"
	if s.nats != nil {
		natsStatus = "healthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"nats":     natsStatus,
		},
		"sessions": s.workspaces.Len(),
		"streams":  s.hub.Count(),
		"time":     s.now(),
	})
}

// newApp builds the Fiber app with the console's error handler, middleware and routes.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Ziogram Admin",
		BodyLimit: (s.config.ImageMaxUploadSizeMB*s.config.ProductMaxImages + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.newApp()

	if sub := s.streamSource(); sub != nil {
		go func() {
			if err := s.hub.Start(s.shutdownCtx, sub); err != nil {
				observability.Logger.Error("failed to start moderation stream", slog.String("error", err.Error()))
			}
		}()
	}

	observability.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		observability.Logger.Error("error shutting down moderation stream", slog.String("error", err.Error()))
	}

	if s.nats != nil {
		s.nats.Close()
	}

	if err := database.Close(s.db); err != nil {
		observability.Logger.Error("error closing audit database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.Logger.Info("Server shutdown complete")
	return nil
}
