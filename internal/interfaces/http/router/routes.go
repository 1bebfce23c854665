package router

import (
	"github.com/gin-gonic/gin"
	"github.com/traitedesk/backend/internal/infrastructure/config"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"github.com/traitedesk/backend/internal/interfaces/http/handler"
	"github.com/traitedesk/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Handlers are the endpoints mounted by New. A nil handler leaves its routes out.
type Handlers struct {
	Traites *handler.TraiteHandler
	Clients *handler.ClientHandler
	Tiers   *handler.TierHandler
	Stats   *handler.StatsHandler
	Health  *handler.HealthHandler
}

// Config configures the engine built by New
type Config struct {
	ServiceName    string
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	Auth           middleware.AuthConfig
	Metrics        *telemetry.Metrics
	TracingEnabled bool
	TracingOptions []otelgin.Option
}

// New builds the gin engine with the middleware stack and every API route.
//
// Order: Recovery, RequestID, Tracing, access log, security headers, CORS,
// body limit, metrics, Auth, span attributes.
func New(cfg Config, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = log
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled, cfg.TracingOptions...))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORS(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}
	engine.Use(middleware.Auth(cfg.Auth))
	engine.Use(middleware.SpanAttributes())

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}
	if cfg.Metrics != nil && cfg.HTTP.MetricsEnabled {
		path := cfg.HTTP.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if h.Health != nil {
		r.Register(NewDomainGroup("system", "").GET("/health", h.Health.Health))
	}
	if h.Traites != nil {
		r.Register(TraiteRoutes(h.Traites, documentLimit(cfg.HTTP)...))
	}
	if h.Clients != nil {
		r.Register(ClientRoutes(h.Clients))
	}
	if h.Tiers != nil {
		r.Register(TierRoutes(h.Tiers))
	}
	if h.Stats != nil {
		r.Register(StatsRoutes(h.Stats))
	}
	r.Setup()

	return engine
}

// TraiteRoutes mounts /traites. limit runs before the document renderer only.
func TraiteRoutes(h *handler.TraiteHandler, limit ...gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("traites", "/traites")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/import", h.Import)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.GET("/:id/document", append(limit, h.Document)...)
	return g
}

// ClientRoutes mounts the review queue and the approval history
func ClientRoutes(h *handler.ClientHandler) *DomainGroup {
	g := NewDomainGroup("clients", "")
	g.GET("/clients/approval-history", h.History)

	pending := g.Group("pending-clients", "/pending-clients")
	pending.POST("", h.Submit)
	pending.GET("", h.List)
	pending.GET("/:id", h.Get)
	pending.PUT("/:id", h.Resubmit)
	pending.POST("/:id/approve", h.Approve)
	pending.POST("/:id/reject", h.Reject)
	return g
}

// TierRoutes mounts /tiers
func TierRoutes(h *handler.TierHandler) *DomainGroup {
	g := NewDomainGroup("tiers", "/tiers")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/import", h.Import)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.GET("/:id/activities", h.Activities)
	return g
}

// StatsRoutes mounts /stats
func StatsRoutes(h *handler.StatsHandler) *DomainGroup {
	return NewDomainGroup("stats", "/stats").
		GET("/traites", h.Traites).
		GET("/clients", h.Clients)
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		c.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		c.AllowHeaders = cfg.CORSAllowHeaders
	}
	c.ExposeHeaders = append(c.ExposeHeaders, "X-Renderer", "Retry-After")
	return c
}

func documentLimit(cfg config.HTTPConfig) []gin.HandlerFunc {
	if cfg.DocumentRateLimit <= 0 {
		return nil
	}
	burst := cfg.DocumentRateBurst
	if burst <= 0 {
		burst = 1
	}
	return []gin.HandlerFunc{middleware.RateLimit(middleware.NewRateLimiter(cfg.DocumentRateLimit, burst))}
}
