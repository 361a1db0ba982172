package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexintel/LexTriage/internal/application/retrieval"
)

// Pinger is anything with a liveness probe (postgres, redis, milvus).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	engine  *retrieval.Engine
	pingers map[string]Pinger
}

// NewHealthHandler builds the handler.  engine may be nil when the process
// serves no retrieval traffic; pingers are checked by name on readiness.
func NewHealthHandler(engine *retrieval.Engine, pingers map[string]Pinger) *HealthHandler {
	return &HealthHandler{engine: engine, pingers: pingers}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz.  It reports per-dependency status and 503
// when anything is down or the index is unbuilt.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()
	ready := true
	checks := gin.H{}

	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			ready = false
			checks[name] = "down"
		} else {
			checks[name] = "up"
		}
	}

	if h.engine != nil {
		if h.engine.Ready(ctx) {
			checks["index"] = "ready"
		} else {
			ready = false
			checks["index"] = "not_built"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
