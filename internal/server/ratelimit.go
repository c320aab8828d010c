package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiterInterface определяет интерфейс для ограничителя запросов
type RateLimiterInterface interface {
	// AllowRequest проверяет, можно ли обработать запрос с адреса
	AllowRequest(clientIP string) bool
	// Cleanup очищает устаревшие записи
	Cleanup()
}

// RateLimiter ограничивает количество запросов по IP-адресу
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.RWMutex
	limit    int
	window   time.Duration
	logger   *zap.Logger
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		logger:   logger,
	}
}

// AllowRequest проверяет, разрешен ли запрос
func (rl *RateLimiter) AllowRequest(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	requests, exists := rl.requests[clientIP]
	if !exists {
		rl.requests[clientIP] = []time.Time{now}
		return true
	}

	var validRequests []time.Time
	for _, reqTime := range requests {
		if reqTime.After(windowStart) {
			validRequests = append(validRequests, reqTime)
		}
	}

	if len(validRequests) >= rl.limit {
		rl.logger.Warn("Rate limit exceeded",
			zap.String("client_ip", clientIP),
			zap.Int("requests", len(validRequests)),
			zap.Int("limit", rl.limit))
		return false
	}

	validRequests = append(validRequests, now)
	rl.requests[clientIP] = validRequests

	return true
}

// Cleanup очищает старые записи
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	for clientIP, requests := range rl.requests {
		var validRequests []time.Time
		for _, reqTime := range requests {
			if reqTime.After(windowStart) {
				validRequests = append(validRequests, reqTime)
			}
		}

		if len(validRequests) == 0 {
			delete(rl.requests, clientIP)
		} else {
			rl.requests[clientIP] = validRequests
		}
	}
}
