package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService keeps live calculator sessions in memory, keyed by uuid
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*calculator.Session
	opts     calculator.Options
	progress ProgressTracker
	metrics  *utils.Metrics
}

func NewSessionService(opts calculator.Options, progress ProgressTracker, metrics *utils.Metrics) *SessionService {
	if progress == nil {
		progress = NopProgressTracker
	}
	if metrics == nil {
		metrics = utils.GetMetrics()
	}
	return &SessionService{
		sessions: make(map[string]*calculator.Session),
		opts:     opts,
		progress: progress,
		metrics:  metrics,
	}
}

// Create starts a session from in, or from the default input when in is nil
func (s *SessionService) Create(ctx context.Context, in *calculator.Input) (string, *calculator.Session) {
	var session *calculator.Session
	if in != nil {
		session = calculator.NewSessionWithInput(*in, s.opts)
	} else {
		session = calculator.NewSession(s.opts)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	s.metrics.RecordSession("create", 1)
	s.track(ctx, id, "session_start")
	return id, session
}

// Get returns a live session
func (s *SessionService) Get(id string) (*calculator.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// UpdateField changes one input field of a session and returns the recomputed result
func (s *SessionService) UpdateField(ctx context.Context, id, field string, value any) (calculator.Result, error) {
	session, err := s.Get(id)
	if err != nil {
		return calculator.Result{}, err
	}

	start := time.Now()
	if err := session.UpdateField(field, value); err != nil {
		return calculator.Result{}, err
	}
	result := session.Result()
	s.metrics.RecordCalculation(time.Since(start), result.Summary.Capped)

	s.track(ctx, id, "update:"+field)
	return result, nil
}

// Delete ends a session
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// EvictIdle removes sessions untouched since before now-idle and returns how many went
func (s *SessionService) EvictIdle(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		if session.UpdatedAt().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.metrics.RecordSession("expire", evicted)
	}
	return evicted
}

// Len returns the number of live sessions
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionService) track(ctx context.Context, id, action string) {
	if err := s.progress.Record(ctx, id, CalculatorDebt, action); err != nil {
		utils.LogError("failed to record progress",
			zap.String("session", id),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// Sweeper drops stale state and reports how many entries it removed.
// utils.RateLimiter and MemoryCache both qualify.
type Sweeper interface {
	Sweep() int
}

// SessionSweeper evicts idle sessions on a ticker
type SessionSweeper struct {
	sessions    *SessionService
	extra       []Sweeper
	interval    time.Duration
	idleTimeout time.Duration

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewSessionSweeper builds a sweeper. Every extra sweeper, such as the rate
// limiter or the in-memory result cache, runs on the same tick.
func NewSessionSweeper(sessions *SessionService, interval, idleTimeout time.Duration, extra ...Sweeper) *SessionSweeper {
	return &SessionSweeper{
		sessions:    sessions,
		extra:       extra,
		interval:    interval,
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the sweep loop in a goroutine until Stop is called
func (s *SessionSweeper) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				s.Sweep(now)
			case <-s.stop:
				return
			}
		}
	}()
}

// Sweep runs one eviction pass
func (s *SessionSweeper) Sweep(now time.Time) int {
	evicted := s.sessions.EvictIdle(now, s.idleTimeout)
	for _, sweeper := range s.extra {
		if removed := sweeper.Sweep(); removed > 0 {
			utils.LogDebug("swept stale entries",
				zap.String("sweeper", fmt.Sprintf("%T", sweeper)),
				zap.Int("count", removed),
			)
		}
	}
	if evicted > 0 {
		utils.LogInfo("evicted idle sessions",
			zap.Int("count", evicted),
			zap.Int("remaining", s.sessions.Len()),
		)
	}
	return evicted
}

// Stop ends the loop and waits for it to exit. Stop must follow Start.
func (s *SessionSweeper) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	<-s.done
}
