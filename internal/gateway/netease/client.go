package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Safari/537.36 Chrome/91.0.4472.164 NeteaseMusicDesktop/2.10.2.200154"
	referer   = "https://music.163.com/"
)

// defaultCookies базовые cookie, отправляемые с каждым запросом
var defaultCookies = map[string]string{
	"os":       "pc",
	"appver":   "",
	"osver":    "",
	"deviceId": "pyncm!",
}

// Client представляет клиент каталога
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	// Базовые адреса выделены в поля ради подмены в тестах
	apiBase string // interface3.music.163.com
	webBase string // music.163.com
}

// NewClient создает новый клиент каталога
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiBase:    "https://interface3.music.163.com",
		webBase:    "https://music.163.com",
	}
}

// requestHeader формирует поле header для eapi payload
func requestHeader() string {
	header := map[string]string{
		"os":        "pc",
		"appver":    "",
		"osver":     "",
		"deviceId":  "pyncm!",
		"requestId": strconv.Itoa(20000000 + rand.Intn(10000000)),
	}
	raw, _ := json.Marshal(header)
	return string(raw)
}

// postEAPI отправляет подписанный eapi запрос и возвращает тело и заголовки ответа
func (c *Client) postEAPI(ctx context.Context, apiURL string, payload map[string]any, cookies map[string]string) ([]byte, http.Header, error) {
	params, err := encryptParams(apiURL, payload)
	if err != nil {
		return nil, nil, err
	}

	form := url.Values{}
	form.Set("params", params)

	return c.postForm(ctx, apiURL, form, cookies)
}

// postForm отправляет form-urlencoded POST с заголовками каталога
func (c *Client) postForm(ctx context.Context, apiURL string, form url.Values, cookies map[string]string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	for name, value := range defaultCookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("catalog request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.Header, nil
}

// checkCode проверяет код ответа каталога
func checkCode(body []byte, operation string) error {
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", operation, err)
	}
	if envelope.Code != 200 {
		if envelope.Message == "" {
			envelope.Message = "unknown error"
		}
		return fmt.Errorf("%s failed: %s (code %d)", operation, envelope.Message, envelope.Code)
	}
	return nil
}

// SongURL возвращает ссылку на аудиопоток заданного качества
func (c *Client) SongURL(ctx context.Context, songID int64, level model.QualityLevel, cookies map[string]string) (*SongURLData, error) {
	apiURL := c.apiBase + "/eapi/song/enhance/player/url/v1"

	payload := map[string]any{
		"ids":        []int64{songID},
		"level":      level.String(),
		"encodeType": "flac",
		"header":     requestHeader(),
	}
	if level == model.QualitySky {
		payload["immerseType"] = "c51"
	}

	body, _, err := c.postEAPI(ctx, apiURL, payload, cookies)
	if err != nil {
		return nil, err
	}
	if err := checkCode(body, "song url"); err != nil {
		return nil, err
	}

	var result struct {
		Data []SongURLData `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse song url response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("song url response contains no data")
	}

	return &result.Data[0], nil
}

// SongDetail возвращает детали треков (до 100 за запрос)
func (c *Client) SongDetail(ctx context.Context, songIDs []int64, cookies map[string]string) ([]SongDetail, error) {
	apiURL := c.apiBase + "/api/v3/song/detail"

	items := make([]map[string]any, 0, len(songIDs))
	for _, id := range songIDs {
		items = append(items, map[string]any{"id": id, "v": 0})
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal song ids: %w", err)
	}

	form := url.Values{}
	form.Set("c", string(raw))

	body, _, err := c.postForm(ctx, apiURL, form, cookies)
	if err != nil {
		return nil, err
	}
	if err := checkCode(body, "song detail"); err != nil {
		return nil, err
	}

	var result struct {
		Songs []SongDetail `json:"songs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse song detail response: %w", err)
	}

	return result.Songs, nil
}

// Lyric возвращает текст песни и его перевод
func (c *Client) Lyric(ctx context.Context, songID int64, cookies map[string]string) (*LyricData, error) {
	apiURL := c.apiBase + "/api/song/lyric"

	form := url.Values{}
	form.Set("id", strconv.FormatInt(songID, 10))
	form.Set("cp", "false")
	for _, key := range []string{"tv", "lv", "rv", "kv", "yv", "ytv", "yrv"} {
		form.Set(key, "0")
	}

	body, _, err := c.postForm(ctx, apiURL, form, cookies)
	if err != nil {
		return nil, err
	}
	if err := checkCode(body, "lyric"); err != nil {
		return nil, err
	}

	var result struct {
		Lrc struct {
			Lyric string `json:"lyric"`
		} `json:"lrc"`
		Tlyric struct {
			Lyric string `json:"lyric"`
		} `json:"tlyric"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse lyric response: %w", err)
	}

	return &LyricData{Lyric: result.Lrc.Lyric, TranslatedLyric: result.Tlyric.Lyric}, nil
}

// Search ищет треки по ключевым словам
func (c *Client) Search(ctx context.Context, keywords string, limit int, cookies map[string]string) ([]SongDetail, error) {
	apiURL := c.webBase + "/api/cloudsearch/pc"

	form := url.Values{}
	form.Set("s", keywords)
	form.Set("type", "1")
	form.Set("limit", strconv.Itoa(limit))

	body, _, err := c.postForm(ctx, apiURL, form, cookies)
	if err != nil {
		return nil, err
	}
	if err := checkCode(body, "search"); err != nil {
		return nil, err
	}

	var result struct {
		Result struct {
			Songs []SongDetail `json:"songs"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return result.Result.Songs, nil
}

// PlaylistDetail возвращает детали плейлиста со всеми треками.
// Треки загружаются пакетами по 100 через song detail.
func (c *Client) PlaylistDetail(ctx context.Context, playlistID int64, cookies map[string]string) (*PlaylistData, error) {
	apiURL := c.webBase + "/api/v6/playlist/detail"

	form := url.Values{}
	form.Set("id", strconv.FormatInt(playlistID, 10))

	body, _, err := c.postForm(ctx, apiURL, form, cookies)
	if err != nil {
		return nil, err
	}
	if err := checkCode(body, "playlist detail"); err != nil {
		return nil, err
	}

	var result struct {
		Playlist struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			CoverImgURL string `json:"coverImgUrl"`
			CreateTime  int64  `json:"createTime"`
			TrackCount  int    `json:"trackCount"`
			Description string `json:"description"`
			Creator     struct {
				Nickname string `json:"nickname"`
			} `json:"creator"`
			TrackIDs []struct {
				ID int64 `json:"id"`
			} `json:"trackIds"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse playlist response: %w", err)
	}

	pl := result.Playlist
	data := &PlaylistData{
		ID:          pl.ID,
		Name:        pl.Name,
		Creator:     pl.Creator.Nickname,
		CoverImgURL: pl.CoverImgURL,
		CreateTime:  pl.CreateTime,
		TrackCount:  pl.TrackCount,
		Description: pl.Description,
	}

	ids := make([]int64, 0, len(pl.TrackIDs))
	for _, t := range pl.TrackIDs {
		ids = append(ids, t.ID)
	}

	for start := 0; start < len(ids); start += 100 {
		end := start + 100
		if end > len(ids) {
			end = len(ids)
		}

		songs, err := c.SongDetail(ctx, ids[start:end], cookies)
		if err != nil {
			return nil, fmt.Errorf("failed to load playlist tracks: %w", err)
		}
		data.Tracks = append(data.Tracks, songs...)
	}

	return data, nil
}

// AlbumDetail возвращает детали альбома
func (c *Client) AlbumDetail(ctx context.Context, albumID int64, cookies map[string]string) (*AlbumData, error) {
	apiURL := fmt.Sprintf("%s/api/v1/album/%d", c.webBase, albumID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if err := checkCode(body, "album detail"); err != nil {
		return nil, err
	}

	var result struct {
		Album struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			Pic         int64  `json:"pic"`
			PicURL      string `json:"picUrl"`
			PublishTime int64  `json:"publishTime"`
			Description string `json:"description"`
			Artist      struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"album"`
		Songs []SongDetail `json:"songs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse album response: %w", err)
	}

	cover := result.Album.PicURL
	if cover == "" {
		cover = PicURL(result.Album.Pic, 300)
	}

	return &AlbumData{
		ID:          result.Album.ID,
		Name:        result.Album.Name,
		Artist:      result.Album.Artist.Name,
		CoverImgURL: cover,
		PublishTime: result.Album.PublishTime,
		Description: result.Album.Description,
		Songs:       result.Songs,
	}, nil
}

// Account проверяет валидность cookie и наличие VIP подписки
func (c *Client) Account(ctx context.Context, cookies map[string]string) (*AccountStatus, error) {
	if len(cookies) == 0 {
		return &AccountStatus{}, nil
	}

	apiURL := c.apiBase + "/api/nuser/account/get"

	body, _, err := c.postForm(ctx, apiURL, url.Values{}, cookies)
	if err != nil {
		return nil, err
	}

	var result struct {
		Code    int `json:"code"`
		Profile *struct {
			UserID  int64 `json:"userId"`
			VipType int   `json:"vipType"`
		} `json:"profile"`
		Account *struct {
			VipType int `json:"vipType"`
		} `json:"account"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse account response: %w", err)
	}

	// Cookie валиден когда code=200 и профиль присутствует
	status := &AccountStatus{}
	if result.Code == 200 && result.Profile != nil {
		status.Valid = true
		status.VIP = result.Profile.VipType > 0 || (result.Account != nil && result.Account.VipType > 0)
	}

	return status, nil
}

// ResolveShortLink разворачивает короткую ссылку 163cn.tv без следования редиректу
func (c *Client) ResolveShortLink(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	noRedirect := &http.Client{
		Transport: c.httpClient.Transport,
		Timeout:   c.httpClient.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("short link request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	location := resp.Header.Get("Location")
	if location == "" {
		return shortURL, nil
	}

	return location, nil
}
