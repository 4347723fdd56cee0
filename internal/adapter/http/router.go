package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig configures the engine built by NewRouter
type RouterConfig struct {
	Logger *zap.Logger
	// Metrics may be nil
	Metrics RequestRecorder
	// MetricsHandler is mounted at /metrics when set
	MetricsHandler http.Handler
	// Health is called by /healthz; nil always reports healthy
	Health func(ctx context.Context) error
	// RateLimiter throttles the API group when set
	RateLimiter *RateLimiter
}

// NewRouter builds the gin engine with middleware, health checks and the API group
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	SetupValidator()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				h.Error(c, ErrCodeUnavailable, "database unavailable")
				return
			}
		}
		h.Success(c, gin.H{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware())
	}
	h.RegisterRoutes(api)
	return r
}
