package service

import (
	"context"
	"fmt"

	"github.com/Nothend/MusicLover/internal/gateway/netease"
	"github.com/Nothend/MusicLover/internal/model"
)

// fakeCatalog управляемая заглушка клиента каталога
type fakeCatalog struct {
	songDetails   []netease.SongDetail
	songURL       *netease.SongURLData
	lyric         *netease.LyricData
	searchResults []netease.SongDetail
	playlist      *netease.PlaylistData
	album         *netease.AlbumData
	resolvedLink  string
	err           error

	playlistCalls int
	detailCalls   int
}

func (f *fakeCatalog) SongURL(ctx context.Context, songID int64, level model.QualityLevel, cookies map[string]string) (*netease.SongURLData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.songURL, nil
}

func (f *fakeCatalog) SongDetail(ctx context.Context, songIDs []int64, cookies map[string]string) ([]netease.SongDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.detailCalls++
	return f.songDetails, nil
}

func (f *fakeCatalog) Lyric(ctx context.Context, songID int64, cookies map[string]string) (*netease.LyricData, error) {
	if f.lyric == nil {
		return nil, fmt.Errorf("no lyric")
	}
	return f.lyric, nil
}

func (f *fakeCatalog) Search(ctx context.Context, keywords string, limit int, cookies map[string]string) ([]netease.SongDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchResults, nil
}

func (f *fakeCatalog) PlaylistDetail(ctx context.Context, playlistID int64, cookies map[string]string) (*netease.PlaylistData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.playlistCalls++
	return f.playlist, nil
}

func (f *fakeCatalog) AlbumDetail(ctx context.Context, albumID int64, cookies map[string]string) (*netease.AlbumData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.album, nil
}

func (f *fakeCatalog) ResolveShortLink(ctx context.Context, shortURL string) (string, error) {
	if f.resolvedLink == "" {
		return shortURL, nil
	}
	return f.resolvedLink, nil
}

// fakeAccount заглушка проверки аккаунта
type fakeAccount struct {
	status netease.AccountStatus
	err    error
	calls  int
}

func (f *fakeAccount) Account(ctx context.Context, cookies map[string]string) (*netease.AccountStatus, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	return &status, nil
}

// fakeQR заглушка операций входа по QR-коду
type fakeQR struct {
	key    string
	result *netease.QRCheckResult
	err    error
}

func (f *fakeQR) QRKey(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.key, nil
}

func (f *fakeQR) QRLoginURL(unikey string) string {
	return "https://music.example/login?codekey=" + unikey
}

func (f *fakeQR) QRCheck(ctx context.Context, unikey string) (*netease.QRCheckResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeLibrary заглушка проверки библиотеки
type fakeLibrary struct {
	match model.LibraryMatch
	err   error
}

func (f *fakeLibrary) SongExists(ctx context.Context, title, artists, album string) (model.LibraryMatch, error) {
	if f.err != nil {
		return model.EmptyLibraryMatch(), f.err
	}
	return f.match, nil
}

// memoryCredentials хранилище сессий в памяти
type memoryCredentials struct {
	saved *model.Credential
}

func (m *memoryCredentials) Get() (*model.Credential, error) {
	return m.saved, nil
}

func (m *memoryCredentials) Save(credential *model.Credential) error {
	m.saved = credential
	return nil
}

func (m *memoryCredentials) Clear() error {
	m.saved = nil
	return nil
}

// staticCookies фиксированный набор cookie
type staticCookies map[string]string

func (s staticCookies) Cookies() map[string]string {
	return s
}
