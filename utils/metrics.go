package utils

import (
	"sync"
	"time"
)

// Metrics holds application counters
type Metrics struct {
	mu sync.RWMutex

	// Request metrics
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Calculator metrics
	Calculations       int64
	CappedSimulations  int64
	SessionsCreated    int64
	SessionsExpired    int64
	CacheHits          int64
	CacheMisses        int64
	LastCalculationAt  time.Time
	CalculationLatency time.Duration

	// Error metrics
	ErrorCount     int64
	LastErrorTime  time.Time
	ErrorTypes     map[string]int64
	CriticalErrors int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// NewMetrics creates an empty set of counters
func NewMetrics() *Metrics {
	return &Metrics{ErrorTypes: make(map[string]int64)}
}

// GetMetrics returns the process-wide counters
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// RecordRequest records a served HTTP request
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if err != nil {
		m.FailedRequests++
		m.recordErrorLocked(err)
	}
}

// RecordCalculation records one run of the debt calculator
func (m *Metrics) RecordCalculation(duration time.Duration, capped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calculations++
	m.CalculationLatency += duration
	m.LastCalculationAt = time.Now()
	if capped {
		m.CappedSimulations++
	}
}

// RecordSession records a session lifecycle event: "create" or "expire"
func (m *Metrics) RecordSession(event string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event {
	case "create":
		m.SessionsCreated += int64(count)
	case "expire":
		m.SessionsExpired += int64(count)
	}
}

// RecordCache records a result cache lookup
func (m *Metrics) RecordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hit {
		m.CacheHits++
	} else {
		m.CacheMisses++
	}
}

// RecordError records an error
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

// RecordCriticalError records an error that needs attention
func (m *Metrics) RecordCriticalError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CriticalErrors++
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot returns a copy of the current counters
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	var avgCalc time.Duration
	if m.Calculations > 0 {
		avgCalc = m.CalculationLatency / time.Duration(m.Calculations)
	}

	return map[string]interface{}{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"average_latency":     m.AverageLatency.String(),
		"calculations":        m.Calculations,
		"capped_simulations":  m.CappedSimulations,
		"average_calculation": avgCalc.String(),
		"sessions_created":    m.SessionsCreated,
		"sessions_expired":    m.SessionsExpired,
		"cache_hits":          m.CacheHits,
		"cache_misses":        m.CacheMisses,
		"error_count":         m.ErrorCount,
		"critical_errors":     m.CriticalErrors,
		"last_error_time":     m.LastErrorTime,
		"error_types":         errorTypes,
	}
}

// ResetMetrics zeroes every counter
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.Calculations = 0
	m.CappedSimulations = 0
	m.SessionsCreated = 0
	m.SessionsExpired = 0
	m.CacheHits = 0
	m.CacheMisses = 0
	m.CalculationLatency = 0
	m.ErrorCount = 0
	m.CriticalErrors = 0
	m.ErrorTypes = make(map[string]int64)
}
