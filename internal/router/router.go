package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/handler/prometheus"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/pkg/auth"
)

// Handler registers routes open to any signed-in caller.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type PatientHandler interface {
	RegisterPatientRoutes(*gin.RouterGroup)
}

type AdminHandler interface {
	RegisterAdminRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	health   Handler
	metrics  *prometheus.Handler
	handlers []interface{}
}

type RouterConfig struct {
	Mode           string
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// NewRouter builds the engine and its global middleware. handlers may
// implement any of Handler, PatientHandler and AdminHandler.
func NewRouter(
	auth *middleware.AuthMiddleware,
	health Handler,
	metrics *prometheus.Handler,
	config RouterConfig,
	handlers ...interface{},
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		auth:     auth,
		health:   health,
		metrics:  metrics,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		metrics.Middleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.AllowedOrigins
	if len(config.AllowedMethods) > 0 {
		corsConfig.AllowMethods = config.AllowedMethods
	}
	if len(config.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = config.AllowedHeaders
	}
	corsConfig.ExposeHeaders = []string{middleware.HeaderXRequestID}
	if len(corsConfig.AllowOrigins) == 0 || (len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	engine.Use(cors.New(corsConfig))

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("route not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handler.NewErrorResponse("method not allowed"))
	})

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Public
	r.health.RegisterRoutes(api)
	r.metrics.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	patient := protected.Group("")
	patient.Use(middleware.RequireRole(auth.RolePatient))

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(auth.RoleAdmin))

	for _, h := range r.handlers {
		if h, ok := h.(Handler); ok {
			h.RegisterRoutes(protected)
		}
		if h, ok := h.(PatientHandler); ok {
			h.RegisterPatientRoutes(patient)
		}
		if h, ok := h.(AdminHandler); ok {
			h.RegisterAdminRoutes(admin)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
