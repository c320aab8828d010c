// Package service содержит бизнес-логику приложения.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// importantCookieKeys ключи, достаточные для авторизованных запросов каталога
var importantCookieKeys = map[string]bool{
	"MUSIC_U": true,
	"__csrf":  true,
	"NMTID":   true,
}

// CookieService управляет сессионным cookie каталога
type CookieService struct {
	mu      sync.RWMutex
	raw     string
	store   model.CredentialRepository
	account AccountAPI
	logger  *zap.Logger
}

// NewCookieService создает сервис сессии и поднимает сохраненный cookie
func NewCookieService(store model.CredentialRepository, account AccountAPI, initial string, logger *zap.Logger) *CookieService {
	s := &CookieService{
		store:   store,
		account: account,
		logger:  logger,
	}

	if stored, err := store.Get(); err != nil {
		logger.Warn("Failed to load stored credential", zap.Error(err))
	} else if stored != nil {
		s.raw = stored.Cookie
		logger.Info("Loaded stored credential",
			zap.Bool("valid", stored.Valid),
			zap.Bool("vip", stored.VIP))
	}

	// Cookie из конфигурации имеет приоритет над сохраненным
	if initial != "" {
		s.raw = initial
	}

	return s
}

// ParseCookies разбирает cookie-строку на пары ключ-значение.
// Разделителями служат точка с запятой и перевод строки.
func ParseCookies(raw string) map[string]string {
	cookies := make(map[string]string)

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		name, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies[name] = strings.TrimSpace(value)
	}

	return cookies
}

// ImportantCookies оставляет только значимые для авторизации ключи.
// Если ни одного значимого ключа нет, исходный набор возвращается как есть.
func ImportantCookies(cookies map[string]string) map[string]string {
	filtered := make(map[string]string)
	for name, value := range cookies {
		if importantCookieKeys[name] {
			filtered[name] = value
		}
	}
	if len(filtered) == 0 {
		return cookies
	}
	return filtered
}

// Cookies возвращает текущие cookie сессии
func (s *CookieService) Cookies() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ImportantCookies(ParseCookies(s.raw))
}

// HasSession сообщает, задан ли сессионный cookie
func (s *CookieService) HasSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ParseCookies(s.raw)["MUSIC_U"] != ""
}

// Status проверяет валидность текущей сессии и наличие VIP.
// Проверка выполняется на каждый вызов, результат не кэшируется.
func (s *CookieService) Status(ctx context.Context) (valid, vip bool, err error) {
	status, err := s.account.Account(ctx, s.Cookies())
	if err != nil {
		return false, false, fmt.Errorf("failed to check session: %w", err)
	}
	return status.Valid, status.VIP, nil
}

// Set проверяет и сохраняет новый cookie сессии
func (s *CookieService) Set(ctx context.Context, raw string) (valid, vip bool, err error) {
	cookies := ParseCookies(raw)
	if cookies["MUSIC_U"] == "" {
		return false, false, fmt.Errorf("cookie is missing MUSIC_U")
	}

	status, err := s.account.Account(ctx, cookies)
	if err != nil {
		return false, false, fmt.Errorf("failed to verify cookie: %w", err)
	}

	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()

	if err := s.store.Save(&model.Credential{
		Cookie: raw,
		Valid:  status.Valid,
		VIP:    status.VIP,
	}); err != nil {
		s.logger.Warn("Failed to persist credential", zap.Error(err))
	}

	s.logger.Info("Session cookie updated",
		zap.Bool("valid", status.Valid),
		zap.Bool("vip", status.VIP))

	return status.Valid, status.VIP, nil
}

// Clear сбрасывает сессию
func (s *CookieService) Clear() error {
	s.mu.Lock()
	s.raw = ""
	s.mu.Unlock()

	return s.store.Clear()
}
