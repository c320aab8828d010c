package webui

import (
	"context"
	"sync"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/Nothend/MusicLover/internal/webui/dispatch"
	"github.com/Nothend/MusicLover/internal/webui/download"
	"github.com/Nothend/MusicLover/internal/webui/gate"
	"github.com/Nothend/MusicLover/internal/webui/pager"
	"github.com/Nothend/MusicLover/internal/webui/qrflow"
	"go.uber.org/zap"
)

// Backend контракт бэкенда, который потребляет контроллер
type Backend interface {
	ParseSong(ctx context.Context, id string, level model.QualityLevel) (*SongData, error)
	ParsePlaylist(ctx context.Context, id string) (*model.Collection, error)
	ParseAlbum(ctx context.Context, id string) (*model.Collection, error)
	QRGenerate(ctx context.Context) (*QRImage, error)
	QRCheck(ctx context.Context, key string) (*QRPoll, error)
	CheckCookie(ctx context.Context) (valid, vip bool, err error)
	UnlockQR(ctx context.Context, password string) error
}

// Сообщения об отклоненном вводе по режимам разбора
var rejectMessages = map[dispatch.Mode]string{
	dispatch.ModeSong:     "无法解析歌曲ID",
	dispatch.ModePlaylist: "无法解析歌单ID",
	dispatch.ModeAlbum:    "无法解析专辑ID",
}

// Controller владеет состоянием интерфейса: текущей коллекцией,
// страницей, сессией входа по QR-коду и пакетом скачиваний.
// Все изменения состояния проходят через его методы под общим мьютексом.
type Controller struct {
	mu sync.Mutex

	backend      Backend
	gate         *gate.Gate
	ui           gate.UI
	orchestrator *download.Orchestrator
	tokens       *dispatch.Tokens
	qr           *qrflow.Machine
	logger       *zap.Logger

	song       *SongData
	collection *model.Collection
	page       *pager.View

	quality model.QualityLevel
	batch   *download.Batch

	now func() time.Time
}

// NewController создает контроллер интерфейса
func NewController(backend Backend, orchestrator *download.Orchestrator, ui gate.UI, quality model.QualityLevel, logger *zap.Logger) *Controller {
	return &Controller{
		backend:      backend,
		gate:         gate.New(backend, ui, logger),
		ui:           ui,
		orchestrator: orchestrator,
		tokens:       dispatch.NewTokens(),
		qr:           qrflow.NewMachine(),
		logger:       logger,
		quality:      quality,
		now:          time.Now,
	}
}

// Dispatch разбирает ввод в режиме mode и загружает результат.
// Нераспознанный ввод отклоняется без сетевого вызова; при гонке
// запросов состояние получает только последний отправленный.
func (c *Controller) Dispatch(ctx context.Context, input string, mode dispatch.Mode) bool {
	id := dispatch.ExtractID(input, mode)
	if id == "" {
		c.ui.Toast(rejectMessages[mode])
		return false
	}

	token := c.tokens.Next()

	switch mode {
	case dispatch.ModeSong:
		song, err := c.backend.ParseSong(ctx, id, c.quality)
		if err != nil {
			c.reportError(err)
			return false
		}
		return c.tokens.Deliver(token, func() {
			c.setSong(song)
		})
	case dispatch.ModePlaylist:
		collection, err := c.backend.ParsePlaylist(ctx, id)
		if err != nil {
			c.reportError(err)
			return false
		}
		return c.tokens.Deliver(token, func() {
			c.SetCollection(collection)
		})
	case dispatch.ModeAlbum:
		collection, err := c.backend.ParseAlbum(ctx, id)
		if err != nil {
			c.reportError(err)
			return false
		}
		return c.tokens.Deliver(token, func() {
			c.SetCollection(collection)
		})
	}
	return false
}

// reportError показывает серверное сообщение дословно,
// транспортные ошибки сводятся к общему тексту
func (c *Controller) reportError(err error) {
	if serverErr, ok := err.(*ServerError); ok {
		c.ui.Toast(serverErr.Message)
		return
	}
	c.logger.Warn("Backend request failed", zap.Error(err))
	c.ui.Toast("请求失败，请稍后重试")
}

// setSong сохраняет результат разбора одной песни
func (c *Controller) setSong(song *SongData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.song = song
}

// Song возвращает последний разобранный трек
func (c *Controller) Song() *SongData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.song
}

// SetCollection заменяет текущую коллекцию и сбрасывает страницу на первую
func (c *Controller) SetCollection(collection *model.Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collection = collection
	c.page = pager.New(len(collection.Tracks))
}

// Collection возвращает текущую коллекцию
func (c *Controller) Collection() *model.Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection
}

// PageTracks возвращает треки текущей страницы
func (c *Controller) PageTracks() []model.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collection == nil || c.page == nil {
		return nil
	}
	return c.page.Slice(c.collection.Tracks)
}

// CurrentPage возвращает номер текущей страницы
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return 1
	}
	return c.page.Current()
}

// TotalPages возвращает количество страниц текущей коллекции
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return 1
	}
	return c.page.TotalPages()
}

// PageWindow возвращает номера страниц видимого окна навигации
func (c *Controller) PageWindow() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return nil
	}
	return c.page.Window()
}

// NextPage переходит на следующую страницу
func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page != nil {
		c.page.Next()
	}
}

// PrevPage переходит на предыдущую страницу
func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page != nil {
		c.page.Prev()
	}
}

// GoToPage переходит на страницу n с ограничением по границам
func (c *Controller) GoToPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page != nil {
		c.page.SetPage(n)
	}
}

// StartQR начинает новую сессию входа по QR-коду.
// Неудачная генерация оставляет автомат в исходном состоянии.
func (c *Controller) StartQR(ctx context.Context) bool {
	image, err := c.backend.QRGenerate(ctx)
	if err != nil {
		c.mu.Lock()
		c.qr.BeginFailed("二维码生成失败")
		c.mu.Unlock()
		c.reportError(err)
		return false
	}

	c.mu.Lock()
	c.qr.Begin(image.Key, image.Image, c.now())
	c.mu.Unlock()
	return true
}

// TickQR продвигает автомат входа и при необходимости опрашивает бэкенд.
// Вызывается внешним таймером; после разрешения сессии тики безвредны.
func (c *Controller) TickQR(ctx context.Context) {
	c.mu.Lock()
	due := c.qr.Tick(c.now())
	if !due {
		c.mu.Unlock()
		return
	}
	epoch := c.qr.Epoch()
	key := c.qr.Key()
	c.mu.Unlock()

	poll, err := c.backend.QRCheck(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.qr.ApplyPollError(epoch, "检查登录状态失败")
		return
	}
	c.qr.ApplyPoll(epoch, poll.Code, poll.Cookie, poll.IsVIP, poll.Message)
}

// ResetQR сбрасывает сессию входа
func (c *Controller) ResetQR() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.qr.Reset()
}

// QRState возвращает текущее состояние автомата входа
func (c *Controller) QRState() qrflow.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qr.State()
}

// QRImageData возвращает изображение кода текущей сессии
func (c *Controller) QRImageData() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qr.Image()
}

// QRMessage возвращает последнее статусное сообщение входа
func (c *Controller) QRMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qr.Message()
}

// QRCountdown возвращает остаток времени жизни кода для отображения
func (c *Controller) QRCountdown() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qr.CountdownDisplay(c.now())
}

// Unlock проверяет пароль доступа к панели входа
func (c *Controller) Unlock(ctx context.Context, password string) bool {
	if err := c.backend.UnlockQR(ctx, password); err != nil {
		c.reportError(err)
		return false
	}
	return true
}

// DownloadTrack скачивает один трек после проверки сессии
func (c *Controller) DownloadTrack(ctx context.Context, track model.Track) bool {
	downloaded := false
	c.gate.Require(ctx, func() {
		downloaded = c.orchestrator.Single(ctx, track, c.quality)
	})
	return downloaded
}

// DownloadAll запускает пакетное скачивание текущей коллекции
// после проверки сессии. Возвращает nil если пакет не стартовал.
func (c *Controller) DownloadAll(ctx context.Context) *download.Batch {
	c.mu.Lock()
	collection := c.collection
	c.mu.Unlock()

	if collection == nil || len(collection.Tracks) == 0 {
		c.ui.Warn("当前没有可下载的歌曲")
		return nil
	}

	var batch *download.Batch
	c.gate.Require(ctx, func() {
		batch = c.orchestrator.StartBatch(ctx, collection.Tracks, c.quality)
		c.mu.Lock()
		c.batch = batch
		c.mu.Unlock()
	})
	return batch
}

// CancelBatch снимает невыполненные задания текущего пакета
func (c *Controller) CancelBatch() {
	c.mu.Lock()
	batch := c.batch
	c.mu.Unlock()
	if batch != nil {
		batch.Cancel()
	}
}
