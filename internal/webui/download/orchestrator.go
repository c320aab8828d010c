package download

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// Fetcher получает аудиофайл с бэкенда
type Fetcher interface {
	// Download возвращает имя файла из заголовка ответа (может быть
	// пустым) и содержимое файла
	Download(ctx context.Context, trackID int64, quality model.QualityLevel) (filename string, data []byte, err error)
}

// Saver сохраняет полученный файл
type Saver interface {
	Save(filename string, data []byte) error
}

// Options параметры оркестратора
type Options struct {
	// Timeout верхняя граница ожидания одного скачивания
	Timeout time.Duration

	// ProgressInterval период продвижения синтетического прогресса
	ProgressInterval time.Duration

	// ProgressStep шаг прогресса за интервал
	ProgressStep int

	// Concurrency потолок одновременных скачиваний пакета
	Concurrency int
}

// withDefaults заполняет незаданные параметры
func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = 500 * time.Millisecond
	}
	if o.ProgressStep <= 0 {
		o.ProgressStep = 5
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return o
}

// Orchestrator управляет одиночными и пакетными скачиваниями
type Orchestrator struct {
	fetcher Fetcher
	saver   Saver
	opts    Options
	logger  *zap.Logger
}

// NewOrchestrator создает оркестратор скачиваний
func NewOrchestrator(fetcher Fetcher, saver Saver, opts Options, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		saver:   saver,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// FallbackFilename возвращает имя файла когда сервер не прислал свое:
// flac для качества без потерь, иначе общее аудио расширение
func FallbackFilename(name string, quality model.QualityLevel) string {
	if quality == model.QualityLossless {
		return name + ".flac"
	}
	return name + ".mp3"
}

// Single выполняет одно скачивание.
// Всегда возвращает флаг успеха: ни ошибка, ни таймаут не оставляют
// вызывающего в ожидании.
func (o *Orchestrator) Single(ctx context.Context, track model.Track, quality model.QualityLevel) bool {
	job := NewJob(track, quality)
	return o.run(ctx, job)
}

// run выполняет задание с синтетическим прогрессом
func (o *Orchestrator) run(ctx context.Context, job *Job) bool {
	if !job.start() {
		return false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	// Индикатор двигается к потолку пока идет запрос
	progressDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(o.opts.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				job.advance(o.opts.ProgressStep)
			}
		}
	}()

	filename, data, err := o.fetcher.Download(fetchCtx, job.TrackID, job.Quality)
	close(progressDone)
	wg.Wait()

	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.DeadlineExceeded) {
			status = StatusTimedOut
		}
		job.finish(status)
		o.logger.Warn("Download failed",
			zap.String("job_id", job.ID),
			zap.Int64("track_id", job.TrackID),
			zap.String("status", status.String()),
			zap.Error(err))
		return false
	}

	if filename == "" {
		filename = FallbackFilename(job.Name, job.Quality)
	}

	if err := o.saver.Save(filename, data); err != nil {
		job.finish(StatusFailed)
		o.logger.Warn("Save failed",
			zap.String("job_id", job.ID),
			zap.String("filename", filename),
			zap.Error(err))
		return false
	}

	job.finish(StatusSucceeded)
	o.logger.Info("Download completed",
		zap.String("job_id", job.ID),
		zap.Int64("track_id", job.TrackID),
		zap.String("filename", filename))
	return true
}

// Batch пакет скачиваний с ограниченной параллельностью
type Batch struct {
	Jobs []*Job

	canceled chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Cancel снимает невыполненные задания пакета.
// Выполняющееся задание завершается естественным образом.
func (b *Batch) Cancel() {
	b.once.Do(func() {
		close(b.canceled)
	})
}

// Wait блокируется до завершения пакета и возвращает счетчики исходов
func (b *Batch) Wait() (succeeded, failed, skipped int) {
	b.wg.Wait()
	for _, job := range b.Jobs {
		switch job.Status() {
		case StatusSucceeded:
			succeeded++
		case StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	return succeeded, failed, skipped
}

// StartBatch запускает пакетное скачивание треков коллекции.
// Задания исполняет пул из Concurrency воркеров; очередь никогда
// не обгоняет потолок одновременных запросов к бэкенду.
func (o *Orchestrator) StartBatch(ctx context.Context, tracks []model.Track, quality model.QualityLevel) *Batch {
	batch := &Batch{
		Jobs:     make([]*Job, 0, len(tracks)),
		canceled: make(chan struct{}),
	}
	for _, track := range tracks {
		batch.Jobs = append(batch.Jobs, NewJob(track, quality))
	}

	queue := make(chan *Job)

	for i := 0; i < o.opts.Concurrency; i++ {
		batch.wg.Add(1)
		go func() {
			defer batch.wg.Done()
			for job := range queue {
				select {
				case <-batch.canceled:
					job.skip()
					continue
				default:
				}
				o.run(ctx, job)
			}
		}()
	}

	batch.wg.Add(1)
	go func() {
		defer batch.wg.Done()
		defer close(queue)
		for _, job := range batch.Jobs {
			select {
			case <-batch.canceled:
				job.skip()
			case <-ctx.Done():
				job.skip()
			default:
				queue <- job
			}
		}
	}()

	return batch
}
