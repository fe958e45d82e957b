package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/qaportal/internal/cache"
	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/http/handlers"
	"github.com/geocoder89/qaportal/internal/http/middlewares"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the routes need. Cache, Prom and Gatherer are optional.
type Deps struct {
	Auth      handlers.AuthService
	Questions handlers.QuestionsService
	Admins    handlers.AdminsLister

	Cache    cache.Store
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Ping checks the store for /readyz; Database names it in /api/health.
	Ping     func(ctx context.Context) error
	Database string
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if cfg.OTELEnabled {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(deps.Ping, deps.Database)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Prom)
	adminsHandler := handlers.NewAdminsHandler(deps.Admins)

	questionsHandler := handlers.NewQuestionsHandler(deps.Questions)
	if deps.Cache != nil {
		questionsHandler = handlers.NewQuestionsHandlerWithCache(deps.Questions, deps.Cache, deps.Prom)
	}

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	api.GET("/health", h.APIHealth)

	// register/login are the only unauthenticated writes, keep brute force in check
	authGroup := api.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
		authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByRouteAndIP))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	api.GET("/questions", questionsHandler.ListQuestions)
	api.GET("/questions/by-admin/:adminId", questionsHandler.ListByAdmin)
	api.GET("/questions/:id", questionsHandler.GetQuestionByID)
	api.POST("/questions", questionsHandler.CreateQuestion)
	api.PUT("/questions/:id", questionsHandler.UpdateQuestion)
	api.DELETE("/questions/:id", questionsHandler.DeleteQuestion)

	api.GET("/admins", adminsHandler.ListAdmins)

	log.Debug("routes registered", "routes", len(r.Routes()))

	return r
}
