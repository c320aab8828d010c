// Package server реализует HTTP API приложения.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nothend/MusicLover/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server представляет HTTP сервер приложения
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	httpServer *http.Server
	limiter    *RateLimiter
	logger     *zap.Logger
}

// New создает сервер с настроенными маршрутами
func New(cfg *config.Config, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(RequestLogger(logger))
	engine.Use(Recovery(logger))
	engine.Use(CORS(splitOrigins(cfg.CORSOrigins)))

	server := &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
	}

	if cfg.RateLimitEnabled {
		server.limiter = NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	}

	server.registerRoutes(handlers)

	server.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// registerRoutes настраивает маршруты API
func (s *Server) registerRoutes(handlers *Handlers) {
	s.engine.GET("/health", handlers.HandleHealth)

	protected := s.engine.Group("/")
	protected.Use(AccessGuard(s.cfg, s.logger))
	if s.limiter != nil {
		protected.Use(RateLimit(s.limiter))
	}

	protected.POST("/song", handlers.HandleSong)
	protected.GET("/playlist", handlers.HandlePlaylist)
	protected.POST("/playlist", handlers.HandlePlaylist)
	protected.GET("/album", handlers.HandleAlbum)
	protected.POST("/album", handlers.HandleAlbum)
	protected.GET("/search", handlers.HandleSearch)
	protected.POST("/search", handlers.HandleSearch)
	protected.POST("/download", handlers.HandleDownload)

	api := protected.Group("/api")
	api.GET("/qr/generate", handlers.HandleQRGenerate)
	api.GET("/qr/check", handlers.HandleQRCheck)
	api.GET("/qr/password", handlers.HandleQRPassword)
	api.GET("/check-cookie", handlers.HandleCheckCookie)
	api.POST("/cookie", handlers.HandleSetCookie)
	api.GET("/info", handlers.HandleInfo)
	api.GET("/history", handlers.HandleHistory)
}

// Engine возвращает gin engine (используется в тестах)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run запускает сервер и блокируется до отмены контекста
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr()))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Периодическая чистка rate limiter
	if s.limiter != nil {
		go s.cleanupLoop(ctx)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// cleanupLoop периодически вычищает устаревшие записи лимитера
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup()
		}
	}
}

// splitOrigins разбирает список разрешенных источников из конфигурации
func splitOrigins(raw string) []string {
	if raw == "" || raw == "*" {
		return nil
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
