package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nothend/MusicLover/internal/config"
	"github.com/Nothend/MusicLover/internal/model"
	"github.com/Nothend/MusicLover/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogResolver определяет операции разбора каталога
type CatalogResolver interface {
	ExtractMusicID(ctx context.Context, input string, mode service.ParseMode) (int64, error)
	Song(ctx context.Context, songID int64, level model.QualityLevel) (*service.SongResult, error)
	Playlist(ctx context.Context, playlistID int64) (*model.Collection, error)
	Album(ctx context.Context, albumID int64) (*model.Collection, error)
	SearchSongs(ctx context.Context, keywords string, limit int) ([]model.Track, error)
}

// SessionManager определяет операции с cookie сессии
type SessionManager interface {
	Status(ctx context.Context) (valid, vip bool, err error)
	Set(ctx context.Context, raw string) (valid, vip bool, err error)
	HasSession() bool
}

// QRManager определяет операции входа по QR-коду
type QRManager interface {
	Generate(ctx context.Context) (*service.QRCode, error)
	Check(ctx context.Context, key string) (*service.QRStatus, error)
}

// Downloader определяет скачивание аудиофайлов
type Downloader interface {
	Fetch(ctx context.Context, songID int64, level model.QualityLevel, clientIP string) (*service.DownloadResult, error)
}

// Handlers содержит обработчики HTTP запросов
type Handlers struct {
	cfg      *config.Config
	catalog  CatalogResolver
	session  SessionManager
	qr       QRManager
	download Downloader
	history  model.HistoryRepository // nil когда хранилище не настроено
	logger   *zap.Logger
}

// NewHandlers создает обработчики
func NewHandlers(cfg *config.Config, catalog CatalogResolver, session SessionManager, qr QRManager, download Downloader, history model.HistoryRepository, logger *zap.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		catalog:  catalog,
		session:  session,
		qr:       qr,
		download: download,
		history:  history,
		logger:   logger,
	}
}

// qualityFromRequest читает уровень качества с откатом на настройку по умолчанию
func (h *Handlers) qualityFromRequest(c *gin.Context, param string) (model.QualityLevel, error) {
	raw := strings.TrimSpace(c.DefaultPostForm(param, c.Query(param)))
	if raw == "" {
		raw = h.cfg.QualityLevel
	}

	level := model.QualityLevel(raw)
	if !level.IsValid() {
		return "", fmt.Errorf("unsupported quality level %q", raw)
	}
	return level, nil
}

// HandleSong обрабатывает POST /song
func (h *Handlers) HandleSong(c *gin.Context) {
	input := c.PostForm("url")
	if strings.TrimSpace(input) == "" {
		respondError(c, http.StatusBadRequest, "url parameter is required")
		return
	}

	level, err := h.qualityFromRequest(c, "level")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	songID, err := h.catalog.ExtractMusicID(c.Request.Context(), input, service.ModeSong)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无法解析歌曲ID")
		return
	}

	result, err := h.catalog.Song(c.Request.Context(), songID, level)
	if err != nil {
		h.logger.Error("Song resolve failed",
			zap.Int64("song_id", songID),
			zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, gin.H{
		"id":          result.Track.ID,
		"name":        result.Track.Name,
		"ar_name":     result.Track.Artists,
		"al_name":     result.Track.Album,
		"duration":    result.Track.Duration,
		"level":       result.Track.Level,
		"size":        model.FormatFileSize(result.Track.Size),
		"pic":         result.Track.PicURL,
		"url":         result.Track.URL,
		"lyric":       result.Lyric,
		"tlyric":      result.TranslatedLyric,
		"in_navidrome": result.Track.InNavidrome,
	})
}

// collectionID извлекает идентификатор коллекции из параметров запроса
func (h *Handlers) collectionID(c *gin.Context, mode service.ParseMode) (int64, error) {
	input := c.Query("id")
	if input == "" {
		input = c.PostForm("id")
	}
	if input == "" {
		input = c.DefaultPostForm("url", c.Query("url"))
	}
	if strings.TrimSpace(input) == "" {
		return 0, fmt.Errorf("id parameter is required")
	}

	return h.catalog.ExtractMusicID(c.Request.Context(), input, mode)
}

// HandlePlaylist обрабатывает GET/POST /playlist
func (h *Handlers) HandlePlaylist(c *gin.Context) {
	playlistID, err := h.collectionID(c, service.ModePlaylist)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	collection, err := h.catalog.Playlist(c.Request.Context(), playlistID)
	if err != nil {
		h.logger.Error("Playlist resolve failed",
			zap.Int64("playlist_id", playlistID),
			zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, gin.H{"playlist": collection})
}

// HandleAlbum обрабатывает GET/POST /album
func (h *Handlers) HandleAlbum(c *gin.Context) {
	albumID, err := h.collectionID(c, service.ModeAlbum)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	collection, err := h.catalog.Album(c.Request.Context(), albumID)
	if err != nil {
		h.logger.Error("Album resolve failed",
			zap.Int64("album_id", albumID),
			zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, gin.H{"album": collection})
}

// HandleSearch обрабатывает GET/POST /search
func (h *Handlers) HandleSearch(c *gin.Context) {
	keywords := c.DefaultPostForm("keywords", c.Query("keywords"))
	if strings.TrimSpace(keywords) == "" {
		respondError(c, http.StatusBadRequest, "keywords parameter is required")
		return
	}

	limit := 30
	if raw := c.DefaultPostForm("limit", c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	tracks, err := h.catalog.SearchSongs(c.Request.Context(), keywords, limit)
	if err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, gin.H{"songs": tracks})
}

// HandleDownload обрабатывает POST /download
func (h *Handlers) HandleDownload(c *gin.Context) {
	rawID := c.PostForm("id")
	songID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "id must be numeric")
		return
	}

	level, err := h.qualityFromRequest(c, "quality")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	result, err := h.download.Fetch(ctx, songID, level, c.ClientIP())
	if err != nil {
		h.logger.Error("Download failed",
			zap.Int64("song_id", songID),
			zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	defer func() {
		if closeErr := result.Body.Close(); closeErr != nil {
			h.logger.Warn("Failed to close download body", zap.Error(closeErr))
		}
	}()

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("X-Download-Filename", url.PathEscape(result.Filename))
	c.Header("Content-Disposition", contentDisposition(result.Filename))
	if result.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(result.Size, 10))
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, result.Body); err != nil {
		h.logger.Warn("Download stream interrupted",
			zap.Int64("song_id", songID),
			zap.Error(err))
	}
}

// contentDisposition формирует заголовок с RFC 5987 кодированием имени
func contentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 32 || r > 126 || r == '"' {
			return '_'
		}
		return r
	}, filename)

	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		fallback, url.PathEscape(filename))
}

// HandleQRGenerate обрабатывает GET /api/qr/generate
func (h *Handlers) HandleQRGenerate(c *gin.Context) {
	code, err := h.qr.Generate(c.Request.Context())
	if err != nil {
		h.logger.Error("QR generate failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, gin.H{
		"qr_key":    code.Key,
		"qr_base64": code.Base64,
	})
}

// HandleQRCheck обрабатывает GET /api/qr/check
func (h *Handlers) HandleQRCheck(c *gin.Context) {
	key := c.Query("qr_key")
	if key == "" {
		respondError(c, http.StatusBadRequest, "qr_key parameter is required")
		return
	}

	status, err := h.qr.Check(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("QR check failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	data := gin.H{
		"status_code": status.Code,
		"message":     status.Message,
	}
	if status.Cookie != "" {
		data["cookie"] = status.Cookie
		data["is_vip"] = status.IsVIP
	}

	respondOK(c, data)
}

// HandleQRPassword обрабатывает GET /api/qr/password
func (h *Handlers) HandleQRPassword(c *gin.Context) {
	if c.Query("password") != h.cfg.QRPassword {
		respondError(c, http.StatusForbidden, "密码错误")
		return
	}
	respondOK(c, gin.H{"unlocked": true})
}

// HandleCheckCookie обрабатывает GET /api/check-cookie
func (h *Handlers) HandleCheckCookie(c *gin.Context) {
	valid, vip, err := h.session.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Cookie check failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, gin.H{
		"valid":  valid,
		"is_vip": vip,
	})
}

// HandleSetCookie обрабатывает POST /api/cookie
func (h *Handlers) HandleSetCookie(c *gin.Context) {
	raw := c.PostForm("cookie")
	if strings.TrimSpace(raw) == "" {
		respondError(c, http.StatusBadRequest, "cookie parameter is required")
		return
	}

	valid, vip, err := h.session.Set(c.Request.Context(), raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	respondOK(c, gin.H{
		"valid":  valid,
		"is_vip": vip,
	})
}

// HandleHealth обрабатывает GET /health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"has_session": h.session.HasSession(),
		"database":    h.history != nil,
	})
}

// HandleInfo обрабатывает GET /api/info
func (h *Handlers) HandleInfo(c *gin.Context) {
	levels := make([]gin.H, 0, len(model.AllQualityLevels))
	for _, level := range model.AllQualityLevels {
		levels = append(levels, gin.H{
			"value": level.String(),
			"name":  level.DisplayName(),
		})
	}

	respondOK(c, gin.H{
		"name":           "MusicLover",
		"default_level":  h.cfg.QualityLevel,
		"quality_levels": levels,
		"navidrome":      h.cfg.NavidromeEnabled,
	})
}

// HandleHistory обрабатывает GET /api/history
func (h *Handlers) HandleHistory(c *gin.Context) {
	if h.history == nil {
		respondError(c, http.StatusNotFound, "history is not configured")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	records, err := h.history.Recent(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	total, err := h.history.Count()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, gin.H{
		"total":   total,
		"records": records,
	})
}
