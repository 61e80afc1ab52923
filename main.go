package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/config"
	"github.com/forbiddenlink/finance-quest-sub016/controllers"
	"github.com/forbiddenlink/finance-quest-sub016/database"
	"github.com/forbiddenlink/finance-quest-sub016/middleware"
	"github.com/forbiddenlink/finance-quest-sub016/services"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type handlers struct {
	auth       *controllers.AuthController
	calculator *controllers.CalculatorController
	scenarios  *controllers.ScenarioController
	progress   *controllers.ProgressController
}

func newRouter(h handlers, metrics *utils.Metrics, limiter *utils.RateLimiter, proxies *middleware.TrustedProxies) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(metrics))

	router.HandleFunc("/api/auth/signUp", h.auth.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", h.auth.SignIn).Methods("POST")

	calc := router.PathPrefix("/api/calculator").Subrouter()
	calc.Use(middleware.RateLimitMiddleware(limiter, proxies))
	calc.HandleFunc("/debt", h.calculator.Calculate).Methods("POST")
	calc.HandleFunc("/debt/compare", h.calculator.Compare).Methods("POST")
	calc.HandleFunc("/consolidation-rate", h.calculator.ConsolidationRate).Methods("GET")
	calc.HandleFunc("/sessions", h.calculator.CreateSession).Methods("POST")
	calc.HandleFunc("/sessions/{id}", h.calculator.GetSession).Methods("GET")
	calc.HandleFunc("/sessions/{id}", h.calculator.UpdateSession).Methods("PATCH")
	calc.HandleFunc("/sessions/{id}", h.calculator.DeleteSession).Methods("DELETE")

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware(h.auth.JWTKey()))
	protected.HandleFunc("/scenarios", h.scenarios.CreateScenario).Methods("POST")
	protected.HandleFunc("/scenarios", h.scenarios.GetScenarios).Methods("GET")
	protected.HandleFunc("/scenarios/{id}", h.scenarios.GetScenario).Methods("GET")
	protected.HandleFunc("/scenarios/{id}", h.scenarios.UpdateScenario).Methods("PUT")
	protected.HandleFunc("/scenarios/{id}", h.scenarios.DeleteScenario).Methods("DELETE")
	protected.HandleFunc("/scenarios/{id}/result", h.scenarios.GetScenarioResult).Methods("GET")
	protected.HandleFunc("/scenarios/{id}/report", h.scenarios.SendScenarioReport).Methods("POST")
	protected.HandleFunc("/progress", h.progress.GetProgress).Methods("GET")

	return router
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("debt planner: %v", err)
	}
}

func run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	proxies, err := middleware.NewTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	checks := map[string]controllers.HealthCheck{"database": db.Ping}

	limiter := utils.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	adminLimiter := utils.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	sweepers := []services.Sweeper{limiter, adminLimiter}

	var cache services.ResultCache
	if cfg.Redis.Addr != "" {
		redisCache := services.NewRedisCache(cfg.Redis.Addr, cfg.Redis.TTL)
		defer redisCache.Close()
		cache = redisCache
		checks["redis"] = redisCache.Ping
		utils.LogInfo("using redis result cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		memoryCache := services.NewMemoryCache(cfg.Redis.TTL)
		cache = memoryCache
		sweepers = append(sweepers, memoryCache)
		utils.LogInfo("using in-memory result cache")
	}

	metrics := utils.GetMetrics()
	opts := cfg.CalculatorOptions()

	progress := services.NewProgressService(db.DB)
	calc := services.NewCalculatorService(cache, progress, metrics, opts, []byte(cfg.JWT.SecretKey))
	sessions := services.NewSessionService(opts, progress, metrics)
	rates := services.NewRateService(cfg.Rates.FeedURL, cfg.Rates.Spread, cfg.Rates.Timeout)
	email := services.NewEmailService(cfg)

	h := handlers{
		auth:       controllers.NewAuthController(services.NewUserService(db), cfg),
		calculator: controllers.NewCalculatorController(calc, sessions, rates),
		scenarios:  controllers.NewScenarioController(services.NewScenarioService(db.DB, calc), email),
		progress:   controllers.NewProgressController(progress),
	}

	sweeper := services.NewSessionSweeper(sessions, cfg.Sessions.SweepInterval, cfg.Sessions.IdleTimeout, sweepers...)
	sweeper.Start()
	defer sweeper.Stop()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	admin := controllers.NewAdminRouter(metrics, adminLimiter, controllers.AdminOptions{
		Token:          cfg.Server.AdminToken,
		RateLimit:      cfg.Server.RateLimit,
		Checks:         checks,
		Sessions:       sessions.Len,
		TrustedProxies: proxies.Entries(),
	})

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: newRouter(h, metrics, limiter, proxies), ReadHeaderTimeout: 10 * time.Second},
		{Addr: fmt.Sprintf(":%d", cfg.Server.AdminPort), Handler: admin, ReadHeaderTimeout: 10 * time.Second},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			utils.LogInfo("server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		utils.LogInfo("shutting down")
	case serveErr = <-errCh:
		utils.LogError("server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.LogError("shutdown failed", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	return serveErr
}
