// Package navidrome реализует проверку наличия треков в локальной библиотеке
// через Subsonic-совместимый API.
package navidrome

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

const (
	apiVersion = "1.16.1"
	clientName = "musiclover"
)

// Client представляет клиент Subsonic API
type Client struct {
	host       string
	user       string
	password   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает новый клиент библиотеки
func NewClient(host, user, password string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		host:       strings.TrimRight(host, "/"),
		user:       user,
		password:   password,
		httpClient: httpClient,
		logger:     logger,
	}
}

// authParams генерирует соленый токен авторизации
func (c *Client) authParams() (url.Values, error) {
	salt := make([]byte, 6)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}

	saltStr := base64.RawURLEncoding.EncodeToString(salt)
	sum := md5.Sum([]byte(c.password + saltStr))

	params := url.Values{}
	params.Set("u", c.user)
	params.Set("t", hex.EncodeToString(sum[:]))
	params.Set("s", saltStr)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")
	return params, nil
}

// subsonicSong трек в ответе search3
type subsonicSong struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Suffix string `json:"suffix"`
	Size   int64  `json:"size"`
}

// searchResponse ответ Subsonic search3
type searchResponse struct {
	SubsonicResponse struct {
		Status        string `json:"status"`
		SearchResult3 struct {
			Song []subsonicSong `json:"song"`
		} `json:"searchResult3"`
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"subsonic-response"`
}

// SongExists ищет трек в библиотеке по названию, артисту и альбому.
// Возвращает пустую аннотацию если совпадение не найдено.
func (c *Client) SongExists(ctx context.Context, title, artists, album string) (model.LibraryMatch, error) {
	if title == "" {
		return model.EmptyLibraryMatch(), nil
	}

	params, err := c.authParams()
	if err != nil {
		return model.EmptyLibraryMatch(), err
	}
	params.Set("query", title)
	params.Set("songCount", "50")
	params.Set("artistCount", "0")
	params.Set("albumCount", "0")

	reqURL := c.host + "/rest/search3?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.EmptyLibraryMatch(), fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.EmptyLibraryMatch(), fmt.Errorf("library request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return model.EmptyLibraryMatch(), fmt.Errorf("library request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.EmptyLibraryMatch(), fmt.Errorf("failed to read response body: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return model.EmptyLibraryMatch(), fmt.Errorf("failed to parse search response: %w", err)
	}
	if result.SubsonicResponse.Status != "ok" {
		return model.EmptyLibraryMatch(), fmt.Errorf("library search failed: %s (code %d)",
			result.SubsonicResponse.Error.Message, result.SubsonicResponse.Error.Code)
	}

	match := findBestMatch(result.SubsonicResponse.SearchResult3.Song, title, artists, album)
	if match == nil {
		return model.EmptyLibraryMatch(), nil
	}

	return model.LibraryMatch{
		Exists:            true,
		Album:             match.Album,
		Artists:           match.Artist,
		FileType:          match.Suffix,
		FileSize:          match.Size,
		FileSizeFormatted: model.FormatFileSize(match.Size),
		IsMP3:             strings.EqualFold(match.Suffix, "mp3"),
	}, nil
}

// findBestMatch выбирает наиболее подходящий трек из результатов поиска.
// Совпадение по названию обязательно, артист или альбом повышают уверенность.
func findBestMatch(songs []subsonicSong, title, artists, album string) *subsonicSong {
	var titleOnly *subsonicSong

	for i := range songs {
		song := &songs[i]
		if !strings.EqualFold(strings.TrimSpace(song.Title), strings.TrimSpace(title)) {
			continue
		}

		if matchesArtist(song.Artist, artists) || (album != "" && strings.EqualFold(song.Album, album)) {
			return song
		}
		if titleOnly == nil {
			titleOnly = song
		}
	}

	return titleOnly
}

// matchesArtist проверяет пересечение списков артистов (разделитель "/")
func matchesArtist(libraryArtist, catalogArtists string) bool {
	if libraryArtist == "" || catalogArtists == "" {
		return false
	}

	library := strings.ToLower(libraryArtist)
	for _, name := range strings.Split(catalogArtists, "/") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && strings.Contains(library, name) {
			return true
		}
	}
	return false
}
