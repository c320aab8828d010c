package service

import (
	"github.com/Nothend/MusicLover/internal/cache"
	"github.com/Nothend/MusicLover/internal/config"
	"github.com/Nothend/MusicLover/internal/gateway/navidrome"
	"github.com/Nothend/MusicLover/internal/gateway/netease"
	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// Services содержит все сервисы приложения
type Services struct {
	Cookie   *CookieService
	Catalog  *CatalogService
	QR       *QRService
	Download *DownloadService
	Cache    *cache.Manager
}

// NewServices создает все сервисы
func NewServices(cfg *config.Config, credentials model.CredentialRepository, history model.HistoryRepository, logger *zap.Logger) *Services {
	httpClient := netease.NewHTTPClient(cfg.HTTPClientConfig, logger)
	catalogClient := netease.NewClient(httpClient, logger)

	var library LibraryAPI
	if cfg.NavidromeEnabled {
		library = navidrome.NewClient(cfg.NavidromeHost, cfg.NavidromeUser, cfg.NavidromePassword, httpClient, logger)
		logger.Info("Library annotation enabled", zap.String("host", cfg.NavidromeHost))
	}

	cacheManager := cache.NewManager(cfg.CacheDuration, logger)
	cookieService := NewCookieService(credentials, catalogClient, cfg.Cookie, logger)

	return &Services{
		Cookie:   cookieService,
		Catalog:  NewCatalogService(catalogClient, library, cookieService, cacheManager, logger),
		QR:       NewQRService(catalogClient, cookieService, logger),
		Download: NewDownloadService(catalogClient, cookieService, httpClient, history, cfg.MaxFileSize, logger),
		Cache:    cacheManager,
	}
}
