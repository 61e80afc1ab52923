package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-secret")

func signedToken(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	_, email, err := GetUserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte(email + ":" + r.Header.Get("X-User-ID")))
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(testKey)(http.HandlerFunc(whoAmI))

	valid := signedToken(t, jwt.MapClaims{
		"user_id": 12,
		"email":   "alex@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testKey)
	expired := signedToken(t, jwt.MapClaims{
		"user_id": 12,
		"email":   "alex@example.com",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}, testKey)
	forged := signedToken(t, jwt.MapClaims{"user_id": 12}, []byte("other"))
	noUser := signedToken(t, jwt.MapClaims{"email": "x@example.com"}, testKey)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "alex@example.com:12"},
		{"without prefix", valid, http.StatusOK, "alex@example.com:12"},
		{"missing", "", http.StatusUnauthorized, "Authorization header is required\n"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Invalid token\n"},
		{"forged", "Bearer " + forged, http.StatusUnauthorized, "Invalid token\n"},
		{"no user", "Bearer " + noUser, http.StatusUnauthorized, "Invalid user_id in token\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scenarios", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.body, rr.Body.String())
		})
	}
}

func TestGetUserFromContext_Missing(t *testing.T) {
	_, _, err := GetUserFromContext(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(utils.NewRateLimiter(2, time.Minute), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/calculator/debt", nil)
		req.RemoteAddr = "10.0.0.7:51000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rr.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/api/calculator/debt", nil)
	req.RemoteAddr = "10.0.0.8:51000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimitMiddleware_IgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := utils.NewRateLimiter(2, time.Minute)
	handler := RateLimitMiddleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/calculator/debt", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 0, limiter.GetRemaining("203.0.113.9"))
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1/32"}, proxies.Entries())

	tests := []struct {
		name      string
		remote    string
		forwarded []string
		want      string
	}{
		{name: "direct client", remote: "203.0.113.9:1234", want: "203.0.113.9"},
		{name: "untrusted peer ignores header", remote: "203.0.113.9:1234", forwarded: []string{"198.51.100.1"}, want: "203.0.113.9"},
		{name: "trusted peer", remote: "10.1.2.3:80", forwarded: []string{"198.51.100.1"}, want: "198.51.100.1"},
		{name: "spoofed left hop", remote: "10.1.2.3:80", forwarded: []string{"1.1.1.1, 198.51.100.1"}, want: "198.51.100.1"},
		{name: "proxy chain", remote: "192.0.2.1:80", forwarded: []string{"198.51.100.1, 10.9.9.9"}, want: "198.51.100.1"},
		{name: "several headers", remote: "10.1.2.3:80", forwarded: []string{"1.1.1.1", "198.51.100.7"}, want: "198.51.100.7"},
		{name: "garbage hop", remote: "10.1.2.3:80", forwarded: []string{"not-an-ip"}, want: "10.1.2.3"},
		{name: "trusted peer without header", remote: "10.1.2.3:80", want: "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, proxies.ClientIP(req))
		})
	}

	var none *TrustedProxies
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:80"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "10.1.2.3", none.ClientIP(req))

	_, err = NewTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = NewTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestLoggingMiddleware_RecordsMetrics(t *testing.T) {
	metrics := utils.NewMetrics()
	handler := LoggingMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/ok", "/boom"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	snap := metrics.GetMetricsSnapshot()
	assert.Equal(t, int64(2), snap["total_requests"])
	assert.Equal(t, int64(1), snap["failed_requests"])
}

func newAdminEngine(metrics *utils.Metrics, limiter *utils.RateLimiter, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(metrics), Logger(), CORSMiddleware(), RateLimit(limiter, 3), Auth(token))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	return r
}

func TestGinMiddleware_AuthAndRecovery(t *testing.T) {
	metrics := utils.NewMetrics()
	r := newAdminEngine(metrics, utils.NewRateLimiter(100, time.Minute), "admin-token")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))

	req = httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, int64(1), metrics.GetMetricsSnapshot()["critical_errors"])
}

func TestGinMiddleware_RateLimitAndPreflight(t *testing.T) {
	r := newAdminEngine(utils.NewMetrics(), utils.NewRateLimiter(2, time.Minute), "")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
