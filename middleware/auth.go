package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
)

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *LoggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs every request and feeds the request metrics
func LoggingMiddleware(metrics *utils.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &LoggingResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(lrw, r)

			duration := time.Since(start)
			var err error
			if lrw.statusCode >= http.StatusInternalServerError {
				err = fmt.Errorf("http %d", lrw.statusCode)
			}
			metrics.RecordRequest(duration, err)

			utils.LogInfo("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", lrw.statusCode),
				zap.Int("bytes", lrw.size),
				zap.Duration("duration", duration),
			)
		})
	}
}

// RateLimitMiddleware rejects clients that exceed the limiter with 429. Clients
// are keyed by proxies.ClientIP; a nil proxies keys on the peer address.
func RateLimitMiddleware(limiter *utils.RateLimiter, proxies *TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := proxies.ClientIP(r)
			if !limiter.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter.GetResetTime(key))))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.GetRemaining(key)))
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware validates the bearer JWT and puts the user into the request context
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtKey, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			userID, ok := claims["user_id"].(float64)
			if !ok || userID <= 0 {
				http.Error(w, "Invalid user_id in token", http.StatusUnauthorized)
				return
			}
			email, _ := claims["email"].(string)

			r.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uint(userID), email)))
		})
	}
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, userID uint, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, emailKey, email)
}

// GetUserFromContext returns the user stored by AuthMiddleware
func GetUserFromContext(r *http.Request) (uint, string, error) {
	userID, ok := r.Context().Value(userIDKey).(uint)
	if !ok {
		return 0, "", errors.New("user_id not found in context")
	}
	email, ok := r.Context().Value(emailKey).(string)
	if !ok {
		return 0, "", errors.New("email not found in context")
	}
	return userID, email, nil
}

func retryAfterSeconds(reset time.Time) int {
	seconds := int(time.Until(reset).Seconds() + 0.999)
	if seconds < 1 {
		return 1
	}
	return seconds
}
