// Package http assembles the gin route tree and the server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/internal/interfaces/http/handlers"
	"github.com/lexintel/LexTriage/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies of the
// route tree.
type RouterConfig struct {
	TriageHandler *handlers.TriageHandler
	HealthHandler *handlers.HealthHandler

	Logger    logging.Logger
	Metrics   *promx.AppMetrics
	Collector promx.MetricsCollector

	// Mode is gin's run mode: debug, release or test.
	Mode string
}

// NewRouter builds the full route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Collector != nil {
		r.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	if cfg.TriageHandler != nil {
		api := r.Group("/api/v1")
		api.POST("/classify", cfg.TriageHandler.Classify)
		api.POST("/penalties", cfg.TriageHandler.EstimatePenalty)
		api.POST("/cases/search", cfg.TriageHandler.SearchCases)
		api.POST("/triage", cfg.TriageHandler.Triage)
	}

	return r
}
