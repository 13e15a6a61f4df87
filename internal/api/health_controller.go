package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports the health of one dependency
type HealthCheck func(ctx context.Context) error

// HealthController serves the liveness and readiness endpoint
type HealthController struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthController creates a health controller over named checks
func NewHealthController(checks map[string]HealthCheck, timeout time.Duration) *HealthController {
	return &HealthController{checks: checks, timeout: timeout}
}

// RegisterRoutes registers the health route with Gin
func (hc *HealthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", hc.Health)
}

func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), hc.timeout)
	defer cancel()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	components := gin.H{}
	for _, name := range names {
		if err := hc.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"time":       time.Now().UTC(),
	})
}
