// Package webui реализует клиентскую оркестрацию поверх HTTP API:
// разбор ввода, постраничный вывод, вход по QR-коду и скачивания.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// ServerError ошибка, о которой сообщил сам сервер внутри конверта.
// Отличается от транспортной: сообщение показывается дословно.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// SongData разобранный трек из POST /song
type SongData struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Artists     string             `json:"ar_name"`
	Album       string             `json:"al_name"`
	Duration    int64              `json:"duration"`
	Level       string             `json:"level"`
	Size        string             `json:"size"`
	PicURL      string             `json:"pic"`
	URL         string             `json:"url"`
	Lyric       string             `json:"lyric"`
	TLyric      string             `json:"tlyric"`
	InNavidrome model.LibraryMatch `json:"in_navidrome"`
}

// Track конвертирует данные песни в трек модели
func (d *SongData) Track() model.Track {
	return model.Track{
		ID:          d.ID,
		Name:        d.Name,
		Artists:     d.Artists,
		Album:       d.Album,
		Duration:    d.Duration,
		PicURL:      d.PicURL,
		Level:       model.QualityLevel(d.Level),
		URL:         d.URL,
		InNavidrome: d.InNavidrome,
	}
}

// QRImage сгенерированный код входа
type QRImage struct {
	Key   string `json:"qr_key"`
	Image string `json:"qr_base64"`
}

// QRPoll результат опроса статуса входа
type QRPoll struct {
	Code    int    `json:"status_code"`
	Message string `json:"message"`
	Cookie  string `json:"cookie"`
	IsVIP   bool   `json:"is_vip"`
}

// APIClient HTTP клиент бэкенда
type APIClient struct {
	base       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient создает клиент бэкенда
func NewAPIClient(base string, httpClient *http.Client, logger *zap.Logger) *APIClient {
	return &APIClient{
		base:       strings.TrimRight(base, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// envelope конверт ответа бэкенда
type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call выполняет запрос и разбирает конверт.
// Неуспех внутри конверта возвращается как *ServerError.
func (c *APIClient) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var req *http.Request
	var err error

	if form != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("backend returned status %d without envelope", resp.StatusCode)
	}
	if !env.Success {
		return &ServerError{Status: env.Status, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
	}
	return nil
}

// ParseSong разрешает один трек
func (c *APIClient) ParseSong(ctx context.Context, id string, level model.QualityLevel) (*SongData, error) {
	form := url.Values{}
	form.Set("url", id)
	form.Set("level", level.String())
	form.Set("type", "json")

	var data SongData
	if err := c.call(ctx, http.MethodPost, "/song", form, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ParsePlaylist разрешает плейлист
func (c *APIClient) ParsePlaylist(ctx context.Context, id string) (*model.Collection, error) {
	var data struct {
		Playlist *model.Collection `json:"playlist"`
	}
	if err := c.call(ctx, http.MethodGet, "/playlist?id="+url.QueryEscape(id), nil, &data); err != nil {
		return nil, err
	}
	if data.Playlist == nil {
		return nil, fmt.Errorf("playlist response contains no data")
	}
	return data.Playlist, nil
}

// ParseAlbum разрешает альбом
func (c *APIClient) ParseAlbum(ctx context.Context, id string) (*model.Collection, error) {
	var data struct {
		Album *model.Collection `json:"album"`
	}
	if err := c.call(ctx, http.MethodGet, "/album?id="+url.QueryEscape(id), nil, &data); err != nil {
		return nil, err
	}
	if data.Album == nil {
		return nil, fmt.Errorf("album response contains no data")
	}
	return data.Album, nil
}

// QRGenerate начинает вход по QR-коду
func (c *APIClient) QRGenerate(ctx context.Context) (*QRImage, error) {
	var data QRImage
	if err := c.call(ctx, http.MethodGet, "/api/qr/generate", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// QRCheck опрашивает статус входа
func (c *APIClient) QRCheck(ctx context.Context, key string) (*QRPoll, error) {
	var data QRPoll
	if err := c.call(ctx, http.MethodGet, "/api/qr/check?qr_key="+url.QueryEscape(key), nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CheckCookie проверяет текущую сессию
func (c *APIClient) CheckCookie(ctx context.Context) (valid, vip bool, err error) {
	var data struct {
		Valid bool `json:"valid"`
		IsVIP bool `json:"is_vip"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/check-cookie", nil, &data); err != nil {
		return false, false, err
	}
	return data.Valid, data.IsVIP, nil
}

// UnlockQR проверяет пароль доступа к входу по QR-коду
func (c *APIClient) UnlockQR(ctx context.Context, password string) error {
	return c.call(ctx, http.MethodGet, "/api/qr/password?password="+url.QueryEscape(password), nil, nil)
}

// Download скачивает аудиофайл трека.
// Имя файла берется из заголовков ответа, если сервер его прислал.
func (c *APIClient) Download(ctx context.Context, trackID int64, quality model.QualityLevel) (string, []byte, error) {
	form := url.Values{}
	form.Set("id", strconv.FormatInt(trackID, 10))
	form.Set("quality", quality.String())
	form.Set("format", "file")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/download", strings.NewReader(form.Encode()))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Файловый ответ отличается от конверта с ошибкой по Content-Type
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && !env.Success {
			return "", nil, &ServerError{Status: env.Status, Message: env.Message}
		}
		return "", nil, fmt.Errorf("unexpected json response for download")
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return downloadFilename(resp.Header), body, nil
}

// downloadFilename извлекает имя файла из заголовков ответа
func downloadFilename(headers http.Header) string {
	if raw := headers.Get("X-Download-Filename"); raw != "" {
		if decoded, err := url.PathUnescape(raw); err == nil {
			return decoded
		}
		return raw
	}

	if disposition := headers.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}

	return ""
}
