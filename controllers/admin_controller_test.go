package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAdminRouter_Health(t *testing.T) {
	healthy := NewAdminRouter(utils.NewMetrics(), utils.NewRateLimiter(100, time.Minute), AdminOptions{
		RateLimit: 100,
		Checks: map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		},
	})
	rr := httptest.NewRecorder()
	healthy.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, rr.Body.String())

	degraded := NewAdminRouter(utils.NewMetrics(), utils.NewRateLimiter(100, time.Minute), AdminOptions{
		RateLimit: 100,
		Checks: map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"cache":    func(context.Context) error { return errors.New("connection refused") },
		},
	})
	rr = httptest.NewRecorder()
	degraded.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"database":"ok","cache":"connection refused"}}`, rr.Body.String())
}

func TestAdminRouter_Metrics(t *testing.T) {
	metrics := utils.NewMetrics()
	metrics.RecordCalculation(time.Millisecond, true)
	router := NewAdminRouter(metrics, utils.NewRateLimiter(100, time.Minute), AdminOptions{
		Token:     "secret",
		RateLimit: 100,
		Sessions:  func() int { return 4 },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 1.0, snap["calculations"])
	assert.Equal(t, 1.0, snap["capped_simulations"])
	assert.Equal(t, 4.0, snap["live_sessions"])

	req = httptest.NewRequest(http.MethodPost, "/metrics/reset", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, int64(0), metrics.GetMetricsSnapshot()["calculations"])
}

func TestAdminRouter_RateLimitKeysOnPeer(t *testing.T) {
	router := NewAdminRouter(utils.NewMetrics(), utils.NewRateLimiter(2, time.Minute), AdminOptions{})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	trusting := NewAdminRouter(utils.NewMetrics(), utils.NewRateLimiter(1, time.Minute), AdminOptions{
		TrustedProxies: []string{"10.0.0.0/8"},
	})
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.2:80"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		trusting.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
