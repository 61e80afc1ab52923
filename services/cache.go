package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/redis/go-redis/v9"
)

// ResultCache stores calculator results by input fingerprint
type ResultCache interface {
	Get(ctx context.Context, key string) (calculator.Result, bool, error)
	Set(ctx context.Context, key string, result calculator.Result) error
}

const cacheKeyPrefix = "debtplanner:result:"

// RedisCache keeps results in redis as JSON
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis at addr
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

// Ping checks that redis answers
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (calculator.Result, bool, error) {
	var result calculator.Result
	val, err := r.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(val, &result); err != nil {
		return result, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, result calculator.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, cacheKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the redis connection pool
func (r *RedisCache) Close() error {
	return r.client.Close()
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process ResultCache used when redis is not configured
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (calculator.Result, bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && m.ttl > 0 && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	var result calculator.Result
	if !ok {
		return result, false, nil
	}
	if err := json.Unmarshal(entry.data, &result); err != nil {
		return result, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, result calculator.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (m *MemoryCache) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
