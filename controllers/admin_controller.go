package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/middleware"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// AdminOptions configures the admin API
type AdminOptions struct {
	Token     string
	RateLimit int
	Checks    map[string]HealthCheck
	// Sessions reports the number of live calculator sessions
	Sessions func() int
	// TrustedProxies may set X-Forwarded-For; empty trusts nobody
	TrustedProxies []string
}

// NewAdminRouter builds the gin admin API: health, metrics and metrics reset
func NewAdminRouter(metrics *utils.Metrics, limiter *utils.RateLimiter, opts AdminOptions) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		utils.LogError("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.Recovery(metrics),
		middleware.Logger(),
		middleware.CORSMiddleware(),
		middleware.RateLimit(limiter, opts.RateLimit),
	)

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		for name, check := range opts.Checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	})

	protected := r.Group("/", middleware.Auth(opts.Token))
	protected.GET("/metrics", func(c *gin.Context) {
		snapshot := metrics.GetMetricsSnapshot()
		if opts.Sessions != nil {
			snapshot["live_sessions"] = opts.Sessions()
		}
		c.JSON(http.StatusOK, snapshot)
	})
	protected.POST("/metrics/reset", func(c *gin.Context) {
		metrics.ResetMetrics()
		c.Status(http.StatusNoContent)
	})

	return r
}
