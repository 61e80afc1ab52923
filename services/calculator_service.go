package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"go.uber.org/zap"
)

// CalculatorService runs the debt calculator with caching, metrics and progress tracking
type CalculatorService struct {
	cache    ResultCache
	progress ProgressTracker
	metrics  *utils.Metrics
	opts     calculator.Options
	cacheKey []byte
}

func NewCalculatorService(cache ResultCache, progress ProgressTracker, metrics *utils.Metrics, opts calculator.Options, cacheKey []byte) *CalculatorService {
	if progress == nil {
		progress = NopProgressTracker
	}
	if metrics == nil {
		metrics = utils.GetMetrics()
	}
	return &CalculatorService{
		cache:    cache,
		progress: progress,
		metrics:  metrics,
		opts:     opts,
		cacheKey: cacheKey,
	}
}

// Options returns the calculator assumptions in use
func (s *CalculatorService) Options() calculator.Options {
	return s.opts
}

// Calculate returns the result for in, from the cache when possible. subject
// identifies the user or session for progress tracking and may be empty.
func (s *CalculatorService) Calculate(ctx context.Context, subject string, in calculator.Input) (calculator.Result, error) {
	if err := ctx.Err(); err != nil {
		return calculator.Result{}, err
	}

	key := s.fingerprint(in)
	if s.cache != nil && key != "" {
		result, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			utils.LogError("result cache lookup failed", zap.Error(err))
		}
		s.metrics.RecordCache(ok)
		if ok {
			s.track(ctx, subject, "calculate")
			return result, nil
		}
	}

	start := time.Now()
	result := calculator.Calculate(in, s.opts)
	s.metrics.RecordCalculation(time.Since(start), result.Summary.Capped)

	if s.cache != nil && key != "" {
		if err := s.cache.Set(ctx, key, result); err != nil {
			utils.LogError("result cache store failed", zap.Error(err))
		}
	}
	s.track(ctx, subject, "calculate")
	return result, nil
}

// Compare runs both strategies on in
func (s *CalculatorService) Compare(ctx context.Context, subject string, in calculator.Input) (calculator.Comparison, error) {
	if err := ctx.Err(); err != nil {
		return calculator.Comparison{}, err
	}

	start := time.Now()
	cmp := calculator.CompareStrategies(in, s.opts)
	elapsed := time.Since(start) / 2
	s.metrics.RecordCalculation(elapsed, cmp.Avalanche.Capped)
	s.metrics.RecordCalculation(elapsed, cmp.Snowball.Capped)

	s.track(ctx, subject, "compare")
	return cmp, nil
}

func (s *CalculatorService) track(ctx context.Context, subject, action string) {
	if subject == "" {
		return
	}
	if err := s.progress.Record(ctx, subject, CalculatorDebt, action); err != nil {
		utils.LogError("failed to record progress",
			zap.String("subject", subject),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// fingerprint is the HMAC of the input and the options
func (s *CalculatorService) fingerprint(in calculator.Input) string {
	payload, err := json.Marshal(struct {
		Input   calculator.Input   `json:"input"`
		Options calculator.Options `json:"options"`
	}{in, s.opts})
	if err != nil {
		return ""
	}
	return utils.GenerateHMAC(payload, s.cacheKey)
}
