package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/Nothend/MusicLover/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger логирует HTTP запросы
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("Request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)))
	}
}

// Recovery перехватывает панику в обработчиках
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Handler panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path))
				abortError(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

// CORS выставляет заголовки для разрешенных источников
func CORS(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AccessGuard проверяет API-ключ и белый список IP для защищенных маршрутов
func AccessGuard(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	whitelist := make(map[string]bool, len(cfg.IPWhitelist))
	for _, ip := range cfg.IPWhitelist {
		whitelist[strings.TrimSpace(ip)] = true
	}

	return func(c *gin.Context) {
		if len(whitelist) > 0 && !whitelist[c.ClientIP()] {
			logger.Warn("Request from non-whitelisted IP",
				zap.String("client_ip", c.ClientIP()))
			abortError(c, http.StatusForbidden, "access denied")
			return
		}

		if cfg.APIKey != "" {
			key := c.GetHeader("X-API-Key")
			if key == "" {
				key = c.Query("api_key")
			}
			if key != cfg.APIKey {
				abortError(c, http.StatusUnauthorized, "invalid api key")
				return
			}
		}

		c.Next()
	}
}

// RateLimit ограничивает частоту запросов по IP
func RateLimit(limiter RateLimiterInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.AllowRequest(c.ClientIP()) {
			abortError(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
