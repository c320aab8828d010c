package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Nothend/MusicLover/internal/config"
	"github.com/Nothend/MusicLover/internal/model"
	"github.com/Nothend/MusicLover/internal/server"
	"github.com/Nothend/MusicLover/internal/service"
	"github.com/Nothend/MusicLover/internal/storage"
	"github.com/Nothend/MusicLover/pkg/logger"
	"go.uber.org/zap"
)

const historyBufferSize = 1000

func main() {
	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	credentials, history, cleanup := buildStorage(cfg, log)
	defer cleanup()

	services := service.NewServices(cfg, credentials, history, log)

	handlers := server.NewHandlers(cfg, services.Catalog, services.Cookie, services.QR, services.Download, history, log)
	srv := server.New(cfg, handlers, log)

	if err := srv.Run(ctx); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// buildStorage выбирает хранилище: Postgres при заданном DSN,
// иначе файл для cookie и память для истории
func buildStorage(cfg *config.Config, log *zap.Logger) (model.CredentialRepository, model.HistoryRepository, func()) {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgres(cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		log.Info("Using postgres storage")
		return pg.GetCredentialRepository(), pg.GetHistoryRepository(), func() {
			if err := pg.Close(); err != nil {
				log.Warn("Failed to close database", zap.Error(err))
			}
		}
	}

	cookiePath := cfg.CookieFile
	if cookiePath == "" {
		cookiePath = filepath.Join(cfg.AppDataDir, "cookie.json")
	}

	log.Info("Using file storage", zap.String("cookie_file", cookiePath))
	return storage.NewFileCredentialStore(cookiePath, log), storage.NewMemoryHistory(historyBufferSize), func() {}
}
