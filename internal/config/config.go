// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	// Web server
	WebHost     string
	WebPort     string
	CORSOrigins string

	// Access control
	APIKey      string
	QRPassword  string
	IPWhitelist []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Catalog session
	Cookie       string
	QualityLevel string
	CookieFile   string

	// Database (optional; file-backed credential store when empty)
	DatabaseURL string

	// Navidrome
	NavidromeEnabled  bool
	NavidromeHost     string
	NavidromeUser     string
	NavidromePassword string

	// Downloads
	MaxFileSize      int64
	RequestTimeout   time.Duration
	BatchConcurrency int

	// Logging
	LogLevel string

	// App Data Directory
	AppDataDir string

	// HTTP Client
	HTTPClientConfig HTTPClientConfig

	// Cache
	CacheDuration time.Duration
}

// HTTPClientConfig представляет конфигурацию HTTP клиента
type HTTPClientConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	DisableKeepAlives     bool
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл если он существует
	if err := godotenv.Load(); err != nil {
		// Игнорируем ошибку если файл не найден
	}

	config := &Config{
		WebHost:     getEnv("WEB_HOST", "0.0.0.0"),
		WebPort:     getEnv("WEB_PORT", "5151"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		APIKey:      getEnv("API_KEY", ""),
		QRPassword:  getEnv("QR_PASSWORD", "1234"),
		IPWhitelist: getEnvList("IP_WHITELIST", nil),

		RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 200),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),

		Cookie:       getEnv("COOKIE", ""),
		QualityLevel: getEnv("QUALITY_LEVEL", "lossless"),
		CookieFile:   getEnv("COOKIE_FILE", ""),

		DatabaseURL: getEnv("DB_DSN", ""),

		NavidromeEnabled:  getEnvBool("NAVIDROME_ENABLED", false),
		NavidromeHost:     getEnv("NAVIDROME_HOST", ""),
		NavidromeUser:     getEnv("NAVIDROME_USER", ""),
		NavidromePassword: getEnv("NAVIDROME_PASS", ""),

		MaxFileSize:      getEnvInt64("MAX_FILE_SIZE", 500*1024*1024),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 1),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		AppDataDir: getEnv("APP_DATA_DIR", "./data"),

		HTTPClientConfig: HTTPClientConfig{
			MaxIdleConns:          getEnvInt("HTTP_MAX_IDLE_CONNS", 100),
			MaxIdleConnsPerHost:   getEnvInt("HTTP_MAX_IDLE_CONNS_PER_HOST", 10),
			IdleConnTimeout:       getEnvDuration("HTTP_IDLE_CONN_TIMEOUT", 90*time.Second),
			TLSHandshakeTimeout:   getEnvDuration("HTTP_TLS_HANDSHAKE_TIMEOUT", 10*time.Second),
			ResponseHeaderTimeout: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
			DisableKeepAlives:     getEnvBool("HTTP_DISABLE_KEEP_ALIVES", false),
		},

		CacheDuration: getEnvDuration("CACHE_DURATION", 10*time.Minute),
	}

	// Валидация обязательных полей
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.WebPort == "" {
		return fmt.Errorf("WEB_PORT is required")
	}

	if port, err := strconv.Atoi(c.WebPort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("WEB_PORT must be a valid port number, got %q", c.WebPort)
	}

	if c.NavidromeEnabled {
		if c.NavidromeHost == "" || c.NavidromeUser == "" || c.NavidromePassword == "" {
			return fmt.Errorf("NAVIDROME_HOST, NAVIDROME_USER and NAVIDROME_PASS are required when NAVIDROME_ENABLED is true")
		}
	}

	if c.RateLimitEnabled && c.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}

	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}

	return nil
}

// Addr возвращает адрес для прослушивания веб-сервером
func (c *Config) Addr() string {
	return c.WebHost + ":" + c.WebPort
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 получает переменную окружения как int64
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList получает переменную окружения как список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
