package service

import (
	"context"

	"github.com/Nothend/MusicLover/internal/gateway/netease"
	"github.com/Nothend/MusicLover/internal/model"
)

// CatalogAPI определяет используемую часть клиента каталога
type CatalogAPI interface {
	SongURL(ctx context.Context, songID int64, level model.QualityLevel, cookies map[string]string) (*netease.SongURLData, error)
	SongDetail(ctx context.Context, songIDs []int64, cookies map[string]string) ([]netease.SongDetail, error)
	Lyric(ctx context.Context, songID int64, cookies map[string]string) (*netease.LyricData, error)
	Search(ctx context.Context, keywords string, limit int, cookies map[string]string) ([]netease.SongDetail, error)
	PlaylistDetail(ctx context.Context, playlistID int64, cookies map[string]string) (*netease.PlaylistData, error)
	AlbumDetail(ctx context.Context, albumID int64, cookies map[string]string) (*netease.AlbumData, error)
	ResolveShortLink(ctx context.Context, shortURL string) (string, error)
}

// AccountAPI определяет проверку сессии каталога
type AccountAPI interface {
	Account(ctx context.Context, cookies map[string]string) (*netease.AccountStatus, error)
}

// QRAPI определяет операции входа по QR-коду
type QRAPI interface {
	QRKey(ctx context.Context) (string, error)
	QRLoginURL(unikey string) string
	QRCheck(ctx context.Context, unikey string) (*netease.QRCheckResult, error)
}

// LibraryAPI определяет проверку наличия трека в локальной библиотеке
type LibraryAPI interface {
	SongExists(ctx context.Context, title, artists, album string) (model.LibraryMatch, error)
}

// CookieProvider отдает текущие cookie сессии для запросов каталога
type CookieProvider interface {
	Cookies() map[string]string
}
