package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// DownloadResult бинарный результат скачивания
type DownloadResult struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DownloadService скачивает аудиофайлы каталога
type DownloadService struct {
	catalog     CatalogAPI
	cookies     CookieProvider
	httpClient  *http.Client
	history     model.HistoryRepository
	maxFileSize int64
	logger      *zap.Logger
}

// NewDownloadService создает сервис скачивания
func NewDownloadService(catalog CatalogAPI, cookies CookieProvider, httpClient *http.Client, history model.HistoryRepository, maxFileSize int64, logger *zap.Logger) *DownloadService {
	return &DownloadService{
		catalog:     catalog,
		cookies:     cookies,
		httpClient:  httpClient,
		history:     history,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Fetch получает аудиопоток трека в заданном качестве.
// Закрыть Body обязан вызывающий.
func (s *DownloadService) Fetch(ctx context.Context, songID int64, level model.QualityLevel, clientIP string) (*DownloadResult, error) {
	cookies := s.cookies.Cookies()

	details, err := s.catalog.SongDetail(ctx, []int64{songID}, cookies)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("song %d not found", songID)
	}
	detail := details[0]

	urlData, err := s.catalog.SongURL(ctx, songID, level, cookies)
	if err != nil {
		return nil, err
	}
	if urlData.URL == "" {
		return nil, fmt.Errorf("song %d is not available at level %s", songID, level)
	}
	if s.maxFileSize > 0 && urlData.Size > s.maxFileSize {
		return nil, fmt.Errorf("file size %d exceeds limit %d", urlData.Size, s.maxFileSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlData.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("audio download failed with status %d", resp.StatusCode)
	}

	ext := fileExtension(urlData.URL, urlData.Type, resp.Header.Get("Content-Type"))
	displayName := detail.Name
	if artists := detail.ArtistString(); artists != "" {
		displayName = artists + " - " + displayName
	}
	filename := SanitizeFilename(displayName + "." + ext)

	size := resp.ContentLength
	if size <= 0 {
		size = urlData.Size
	}

	s.recordHistory(detail.ID, detail.Name, detail.ArtistString(), urlData.Level, size, ext, clientIP)

	s.logger.Info("Audio download started",
		zap.Int64("song_id", songID),
		zap.String("level", urlData.Level),
		zap.String("filename", filename),
		zap.Int64("size", size))

	body := resp.Body
	if s.maxFileSize > 0 {
		body = limitedReadCloser(resp.Body, s.maxFileSize)
	}

	return &DownloadResult{
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        size,
		Body:        body,
	}, nil
}

// recordHistory пишет запись истории, если хранилище настроено
func (s *DownloadService) recordHistory(songID int64, name, artists, level string, size int64, fileType, clientIP string) {
	if s.history == nil {
		return
	}

	record := &model.DownloadRecord{
		SongID:    songID,
		Name:      name,
		Artists:   artists,
		Level:     level,
		FileSize:  size,
		FileType:  fileType,
		ClientIP:  clientIP,
		CreatedAt: time.Now(),
	}
	if err := s.history.Add(record); err != nil {
		s.logger.Warn("Failed to record download history", zap.Error(err))
	}
}

// fileExtension определяет расширение файла по ссылке, типу каталога
// и Content-Type ответа, в порядке убывания доверия
func fileExtension(audioURL, catalogType, contentType string) string {
	if parsed, err := url.Parse(audioURL); err == nil {
		if ext := strings.TrimPrefix(path.Ext(parsed.Path), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}

	if catalogType != "" {
		return strings.ToLower(catalogType)
	}

	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}

	return "mp3"
}

// SanitizeFilename нормализует имя файла и убирает запрещенные символы
func SanitizeFilename(name string) string {
	name = norm.NFKC.String(name)

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_",
		"|", "_", "\x00", "",
	)
	name = replacer.Replace(name)

	name = strings.Trim(name, " .")
	if name == "" {
		name = "track"
	}
	return name
}

// limitedReadCloser оборачивает тело ответа жестким лимитом размера
func limitedReadCloser(rc io.ReadCloser, limit int64) io.ReadCloser {
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(rc, limit), rc}
}
