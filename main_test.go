package main

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/config"
	"github.com/forbiddenlink/finance-quest-sub016/controllers"
	"github.com/forbiddenlink/finance-quest-sub016/services"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandlers() handlers {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.ExpiresIn = 1

	opts := calculator.DefaultOptions()
	calc := services.NewCalculatorService(services.NewMemoryCache(time.Minute), nil, utils.NewMetrics(), opts, []byte("k"))
	sessions := services.NewSessionService(opts, nil, utils.NewMetrics())

	return handlers{
		auth:       controllers.NewAuthController(nil, cfg),
		calculator: controllers.NewCalculatorController(calc, sessions, services.NewRateService("http://127.0.0.1:1", 3, time.Second)),
		scenarios:  controllers.NewScenarioController(nil, nil),
		progress:   controllers.NewProgressController(nil),
	}
}

func TestNewRouter_Routes(t *testing.T) {
	router := newRouter(testHandlers(), utils.NewMetrics(), utils.NewRateLimiter(100, time.Minute), nil)

	var routes []string
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range methods {
			routes = append(routes, m+" "+path)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(routes)

	assert.Equal(t, []string{
		"DELETE /api/calculator/sessions/{id}",
		"DELETE /api/scenarios/{id}",
		"GET /api/calculator/consolidation-rate",
		"GET /api/calculator/sessions/{id}",
		"GET /api/progress",
		"GET /api/scenarios",
		"GET /api/scenarios/{id}",
		"GET /api/scenarios/{id}/result",
		"PATCH /api/calculator/sessions/{id}",
		"POST /api/auth/signIn",
		"POST /api/auth/signUp",
		"POST /api/calculator/debt",
		"POST /api/calculator/debt/compare",
		"POST /api/calculator/sessions",
		"POST /api/scenarios",
		"POST /api/scenarios/{id}/report",
		"PUT /api/scenarios/{id}",
	}, routes)
}

func TestNewRouter_ProtectedRequiresToken(t *testing.T) {
	router := newRouter(testHandlers(), utils.NewMetrics(), utils.NewRateLimiter(100, time.Minute), nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNewRouter_RateLimitsCalculator(t *testing.T) {
	router := newRouter(testHandlers(), utils.NewMetrics(), utils.NewRateLimiter(1, time.Minute), nil)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/calculator/sessions", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
}
