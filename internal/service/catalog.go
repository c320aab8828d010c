package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Nothend/MusicLover/internal/cache"
	"github.com/Nothend/MusicLover/internal/gateway/netease"
	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// ParseMode режим разбора пользовательского ввода
type ParseMode string

const (
	ModeSong     ParseMode = "song"
	ModePlaylist ParseMode = "playlist"
	ModeAlbum    ParseMode = "album"
)

var (
	idPatterns = map[ParseMode]*regexp.Regexp{
		ModeSong:     regexp.MustCompile(`song\?id=(\d+)|song/(\d+)`),
		ModePlaylist: regexp.MustCompile(`playlist\?id=(\d+)`),
		ModeAlbum:    regexp.MustCompile(`album\?id=(\d+)`),
	}
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// SongResult результат разбора одного трека
type SongResult struct {
	Track           model.Track
	Lyric           string
	TranslatedLyric string
}

// CatalogService разрешает треки, плейлисты и альбомы каталога
type CatalogService struct {
	catalog CatalogAPI
	library LibraryAPI // nil когда библиотека не настроена
	cookies CookieProvider
	cache   *cache.Manager
	logger  *zap.Logger
}

// NewCatalogService создает сервис каталога
func NewCatalogService(catalog CatalogAPI, library LibraryAPI, cookies CookieProvider, cacheManager *cache.Manager, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		library: library,
		cookies: cookies,
		cache:   cacheManager,
		logger:  logger,
	}
}

// ExtractMusicID извлекает числовой идентификатор из ссылки или прямого ввода.
// Короткие ссылки 163cn.tv предварительно разворачиваются.
func (s *CatalogService) ExtractMusicID(ctx context.Context, input string, mode ParseMode) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("empty input")
	}

	if strings.Contains(input, "163cn.tv") {
		resolved, err := s.catalog.ResolveShortLink(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve short link: %w", err)
		}
		input = resolved
	}

	// Фрагмент клиентского роутера не влияет на разбор
	input = strings.ReplaceAll(input, "/#/", "/")

	pattern, ok := idPatterns[mode]
	if !ok {
		return 0, fmt.Errorf("unknown parse mode %q", mode)
	}

	if match := pattern.FindStringSubmatch(input); match != nil {
		for _, group := range match[1:] {
			if group != "" {
				return strconv.ParseInt(group, 10, 64)
			}
		}
	}

	if digitsOnly.MatchString(input) {
		return strconv.ParseInt(input, 10, 64)
	}

	return 0, fmt.Errorf("no %s id found in input", mode)
}

// Song разрешает один трек: детали, ссылка на поток, текст, аннотация библиотеки
func (s *CatalogService) Song(ctx context.Context, songID int64, level model.QualityLevel) (*SongResult, error) {
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

	result := &SongResult{
		Track: trackFromDetail(detail),
	}
	result.Track.Level = model.QualityLevel(urlData.Level)
	result.Track.Size = urlData.Size
	result.Track.URL = urlData.URL

	// Текст не критичен для ответа
	if lyric, err := s.catalog.Lyric(ctx, songID, cookies); err != nil {
		s.logger.Warn("Failed to fetch lyric",
			zap.Int64("song_id", songID),
			zap.Error(err))
	} else {
		result.Lyric = lyric.Lyric
		result.TranslatedLyric = lyric.TranslatedLyric
	}

	if s.library != nil {
		match, err := s.library.SongExists(ctx, detail.Name, detail.ArtistString(), detail.Album.Name)
		if err != nil {
			s.logger.Warn("Library lookup failed",
				zap.String("title", detail.Name),
				zap.Error(err))
		} else {
			result.Track.InNavidrome = match
		}
	}

	return result, nil
}

// Playlist разрешает плейлист со всеми треками
func (s *CatalogService) Playlist(ctx context.Context, playlistID int64) (*model.Collection, error) {
	if cached, ok := s.cache.Get(model.KindPlaylist, playlistID); ok {
		return cached, nil
	}

	data, err := s.catalog.PlaylistDetail(ctx, playlistID, s.cookies.Cookies())
	if err != nil {
		return nil, err
	}

	collection := &model.Collection{
		Kind:        model.KindPlaylist,
		ID:          data.ID,
		Name:        data.Name,
		Creator:     data.Creator,
		PicURL:      data.CoverImgURL,
		CreatedAt:   model.TimestampToDate(data.CreateTime),
		TrackCount:  data.TrackCount,
		Description: data.Description,
		Tracks:      s.tracksFromDetails(ctx, data.Tracks),
	}

	s.cache.Store(collection)
	return collection, nil
}

// Album разрешает альбом со всеми треками
func (s *CatalogService) Album(ctx context.Context, albumID int64) (*model.Collection, error) {
	if cached, ok := s.cache.Get(model.KindAlbum, albumID); ok {
		return cached, nil
	}

	data, err := s.catalog.AlbumDetail(ctx, albumID, s.cookies.Cookies())
	if err != nil {
		return nil, err
	}

	collection := &model.Collection{
		Kind:        model.KindAlbum,
		ID:          data.ID,
		Name:        data.Name,
		Creator:     data.Artist,
		PicURL:      data.CoverImgURL,
		CreatedAt:   model.TimestampToDate(data.PublishTime),
		TrackCount:  len(data.Songs),
		Description: data.Description,
		Tracks:      s.tracksFromDetails(ctx, data.Songs),
	}

	s.cache.Store(collection)
	return collection, nil
}

// SearchSongs ищет треки по ключевым словам
func (s *CatalogService) SearchSongs(ctx context.Context, keywords string, limit int) ([]model.Track, error) {
	if strings.TrimSpace(keywords) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}

	songs, err := s.catalog.Search(ctx, keywords, limit, s.cookies.Cookies())
	if err != nil {
		return nil, err
	}

	tracks := make([]model.Track, 0, len(songs))
	for _, song := range songs {
		tracks = append(tracks, trackFromDetail(song))
	}
	return tracks, nil
}

// tracksFromDetails конвертирует детали треков с аннотацией библиотеки
func (s *CatalogService) tracksFromDetails(ctx context.Context, details []netease.SongDetail) []model.Track {
	tracks := make([]model.Track, 0, len(details))
	for _, detail := range details {
		track := trackFromDetail(detail)

		if s.library != nil {
			match, err := s.library.SongExists(ctx, detail.Name, detail.ArtistString(), detail.Album.Name)
			if err != nil {
				s.logger.Debug("Library lookup failed",
					zap.String("title", detail.Name),
					zap.Error(err))
			} else {
				track.InNavidrome = match
			}
		}

		tracks = append(tracks, track)
	}
	return tracks
}

// trackFromDetail строит трек модели из деталей каталога
func trackFromDetail(detail netease.SongDetail) model.Track {
	return model.Track{
		ID:       detail.ID,
		Name:     detail.Name,
		Artists:  detail.ArtistString(),
		Album:    detail.Album.Name,
		Duration: detail.Duration,
		PicURL:   detail.Album.PicURL,
	}
}
