package webui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/Nothend/MusicLover/internal/webui/dispatch"
	"github.com/Nothend/MusicLover/internal/webui/download"
	"github.com/Nothend/MusicLover/internal/webui/qrflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend управляемая заглушка бэкенда
type fakeBackend struct {
	song     *SongData
	playlist *model.Collection
	album    *model.Collection
	qrImage  *QRImage
	qrPolls  []*QRPoll
	valid    bool
	vip      bool
	err      error

	parseCalls int
	pollCalls  int
}

func (f *fakeBackend) ParseSong(ctx context.Context, id string, level model.QualityLevel) (*SongData, error) {
	f.parseCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.song, nil
}

func (f *fakeBackend) ParsePlaylist(ctx context.Context, id string) (*model.Collection, error) {
	f.parseCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.playlist, nil
}

func (f *fakeBackend) ParseAlbum(ctx context.Context, id string) (*model.Collection, error) {
	f.parseCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.album, nil
}

func (f *fakeBackend) QRGenerate(ctx context.Context) (*QRImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.qrImage, nil
}

func (f *fakeBackend) QRCheck(ctx context.Context, key string) (*QRPoll, error) {
	if f.pollCalls < len(f.qrPolls) {
		poll := f.qrPolls[f.pollCalls]
		f.pollCalls++
		return poll, nil
	}
	f.pollCalls++
	return &QRPoll{Code: qrflow.CodeWaiting, Message: "等待扫码"}, nil
}

func (f *fakeBackend) CheckCookie(ctx context.Context) (bool, bool, error) {
	return f.valid, f.vip, nil
}

func (f *fakeBackend) UnlockQR(ctx context.Context, password string) error {
	if password != "1234" {
		return &ServerError{Status: 403, Message: "密码错误"}
	}
	return nil
}

// notifications записывает уведомления интерфейса
type notifications struct {
	mu         sync.Mutex
	toasts     []string
	warns      []string
	panelOpens int
}

func (n *notifications) Toast(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, message)
}

func (n *notifications) Warn(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, message)
}

func (n *notifications) OpenLoginPanel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.panelOpens++
}

// stubFetcher мгновенно возвращает содержимое
type stubFetcher struct{}

func (stubFetcher) Download(ctx context.Context, trackID int64, quality model.QualityLevel) (string, []byte, error) {
	return fmt.Sprintf("track-%d.flac", trackID), []byte("audio"), nil
}

// discardSaver принимает файлы без сохранения
type discardSaver struct {
	mu    sync.Mutex
	saved []string
}

func (s *discardSaver) Save(filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, filename)
	return nil
}

func newTestController(backend *fakeBackend, ui *notifications) (*Controller, *discardSaver) {
	saver := &discardSaver{}
	orchestrator := download.NewOrchestrator(stubFetcher{}, saver, download.Options{
		Timeout:          time.Second,
		ProgressInterval: time.Millisecond,
	}, zap.NewNop())
	return NewController(backend, orchestrator, ui, model.QualityLossless, zap.NewNop()), saver
}

func manyTracks(n int) []model.Track {
	tracks := make([]model.Track, n)
	for i := range tracks {
		tracks[i] = model.Track{ID: int64(i + 1), Name: fmt.Sprintf("Track %d", i+1)}
	}
	return tracks
}

func TestController_DispatchSong(t *testing.T) {
	backend := &fakeBackend{song: &SongData{ID: 123, Name: "Track A"}}
	ui := &notifications{}
	c, _ := newTestController(backend, ui)

	ok := c.Dispatch(context.Background(), "https://music.163.com/#/song?id=123", dispatch.ModeSong)
	assert.True(t, ok)
	require.NotNil(t, c.Song())
	assert.Equal(t, "Track A", c.Song().Name)
	assert.Empty(t, ui.toasts)
}

func TestController_DispatchRejectsBadInput(t *testing.T) {
	backend := &fakeBackend{}
	ui := &notifications{}
	c, _ := newTestController(backend, ui)

	tests := []struct {
		input string
		mode  dispatch.Mode
		want  string
	}{
		{"not a link", dispatch.ModeSong, "无法解析歌曲ID"},
		{"https://music.163.com/song?id=1", dispatch.ModePlaylist, "无法解析歌单ID"},
		{"", dispatch.ModeAlbum, "无法解析专辑ID"},
	}

	for _, tt := range tests {
		ui.toasts = nil
		ok := c.Dispatch(context.Background(), tt.input, tt.mode)
		assert.False(t, ok)
		require.Len(t, ui.toasts, 1)
		assert.Equal(t, tt.want, ui.toasts[0])
	}

	// Отклоненный ввод не доходит до бэкенда
	assert.Zero(t, backend.parseCalls)
}

func TestController_DispatchPlaylistResetsPage(t *testing.T) {
	backend := &fakeBackend{playlist: &model.Collection{
		Kind:   model.KindPlaylist,
		Name:   "Mix",
		Tracks: manyTracks(95),
	}}
	c, _ := newTestController(backend, &notifications{})

	ok := c.Dispatch(context.Background(), "https://music.163.com/playlist?id=777", dispatch.ModePlaylist)
	require.True(t, ok)

	assert.Equal(t, 4, c.TotalPages())
	assert.Equal(t, 1, c.CurrentPage())
	assert.Len(t, c.PageTracks(), 30)

	c.GoToPage(4)
	assert.Len(t, c.PageTracks(), 5)

	// Новая коллекция открывается с первой страницы
	ok = c.Dispatch(context.Background(), "https://music.163.com/playlist?id=778", dispatch.ModePlaylist)
	require.True(t, ok)
	assert.Equal(t, 1, c.CurrentPage())
}

func TestController_DispatchServerError(t *testing.T) {
	backend := &fakeBackend{err: &ServerError{Status: 404, Message: "歌单不存在"}}
	ui := &notifications{}
	c, _ := newTestController(backend, ui)

	ok := c.Dispatch(context.Background(), "777", dispatch.ModePlaylist)
	assert.False(t, ok)
	// Серверное сообщение показывается дословно
	require.Len(t, ui.toasts, 1)
	assert.Equal(t, "歌单不存在", ui.toasts[0])
	assert.Nil(t, c.Collection())
}

func TestController_PageNavigation(t *testing.T) {
	c, _ := newTestController(&fakeBackend{}, &notifications{})
	c.SetCollection(&model.Collection{Tracks: manyTracks(150)})

	c.NextPage()
	assert.Equal(t, 2, c.CurrentPage())
	c.PrevPage()
	c.PrevPage()
	assert.Equal(t, 1, c.CurrentPage())

	c.GoToPage(99)
	assert.Equal(t, 5, c.CurrentPage())

	window := c.PageWindow()
	require.NotEmpty(t, window)
	assert.LessOrEqual(t, len(window), 10)
	assert.Contains(t, window, 5)
}

func TestController_QRConfirmFlow(t *testing.T) {
	backend := &fakeBackend{
		qrImage: &QRImage{Key: "unikey", Image: "data:image/png;base64,AAAA"},
		qrPolls: []*QRPoll{
			{Code: qrflow.CodeWaiting, Message: "等待扫码"},
			{Code: qrflow.CodeConfirmed, Message: "登录成功", Cookie: "MUSIC_U=abc", IsVIP: true},
		},
	}
	c, _ := newTestController(backend, &notifications{})

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := start
	c.now = func() time.Time { return current }

	require.True(t, c.StartQR(context.Background()))
	assert.Equal(t, qrflow.StateGenerated, c.QRState())
	assert.Equal(t, "3:00", c.QRCountdown())

	// До срока опроса тик ничего не делает
	c.TickQR(context.Background())
	assert.Zero(t, backend.pollCalls)

	current = start.Add(3 * time.Second)
	c.TickQR(context.Background())
	assert.Equal(t, 1, backend.pollCalls)
	assert.Equal(t, qrflow.StatePolling, c.QRState())

	current = start.Add(6 * time.Second)
	c.TickQR(context.Background())
	assert.Equal(t, qrflow.StateConfirmed, c.QRState())

	// После подтверждения тики безвредны
	current = start.Add(9 * time.Second)
	c.TickQR(context.Background())
	assert.Equal(t, 2, backend.pollCalls)
	assert.Equal(t, qrflow.StateConfirmed, c.QRState())
}

func TestController_QRGenerateFailure(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("backend down")}
	ui := &notifications{}
	c, _ := newTestController(backend, ui)

	assert.False(t, c.StartQR(context.Background()))
	assert.Equal(t, qrflow.StateIdle, c.QRState())
	assert.Len(t, ui.toasts, 1)
}

func TestController_ResetQR(t *testing.T) {
	backend := &fakeBackend{qrImage: &QRImage{Key: "unikey", Image: "img"}}
	c, _ := newTestController(backend, &notifications{})

	require.True(t, c.StartQR(context.Background()))
	c.ResetQR()
	assert.Equal(t, qrflow.StateIdle, c.QRState())
	assert.Empty(t, c.QRImageData())
}

func TestController_Unlock(t *testing.T) {
	backend := &fakeBackend{}
	ui := &notifications{}
	c, _ := newTestController(backend, ui)

	assert.True(t, c.Unlock(context.Background(), "1234"))
	assert.False(t, c.Unlock(context.Background(), "0000"))
	require.Len(t, ui.toasts, 1)
	assert.Equal(t, "密码错误", ui.toasts[0])
}

func TestController_DownloadTrackGated(t *testing.T) {
	tests := []struct {
		name      string
		valid     bool
		vip       bool
		want      bool
		wantPanel int
		wantWarns int
	}{
		{"invalid session opens login panel", false, false, false, 1, 1},
		{"non-vip refused", true, false, false, 0, 1},
		{"vip downloads", true, true, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{valid: tt.valid, vip: tt.vip}
			ui := &notifications{}
			c, saver := newTestController(backend, ui)

			got := c.DownloadTrack(context.Background(), model.Track{ID: 1, Name: "Track A"})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPanel, ui.panelOpens)
			assert.Len(t, ui.warns, tt.wantWarns)
			if tt.want {
				assert.Equal(t, []string{"track-1.flac"}, saver.saved)
			} else {
				assert.Empty(t, saver.saved)
			}
		})
	}
}

func TestController_DownloadAll(t *testing.T) {
	backend := &fakeBackend{valid: true, vip: true}
	c, saver := newTestController(backend, &notifications{})
	c.SetCollection(&model.Collection{Tracks: manyTracks(3)})

	batch := c.DownloadAll(context.Background())
	require.NotNil(t, batch)

	succeeded, failed, skipped := batch.Wait()
	assert.Equal(t, 3, succeeded)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)
	assert.Len(t, saver.saved, 3)
}

func TestController_DownloadAllWithoutCollection(t *testing.T) {
	backend := &fakeBackend{valid: true, vip: true}
	ui := &notifications{}
	c, _ := newTestController(backend, ui)

	assert.Nil(t, c.DownloadAll(context.Background()))
	require.Len(t, ui.warns, 1)
	assert.Equal(t, "当前没有可下载的歌曲", ui.warns[0])
}

func TestController_APIClientSatisfiesBackend(t *testing.T) {
	var _ Backend = (*APIClient)(nil)
	var _ download.Fetcher = (*APIClient)(nil)
}
