package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher управляемая заглушка скачивания
type fakeFetcher struct {
	mu       sync.Mutex
	delay    time.Duration
	err      error
	filename string
	inFlight int32
	maxSeen  int32
	calls    []int64
}

func (f *fakeFetcher) Download(ctx context.Context, trackID int64, quality model.QualityLevel) (string, []byte, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, trackID)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}

	if f.err != nil {
		return "", nil, f.err
	}
	return f.filename, []byte("audio"), nil
}

// memorySaver сохраняет файлы в память
type memorySaver struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemorySaver() *memorySaver {
	return &memorySaver{files: make(map[string][]byte)}
}

func (s *memorySaver) Save(filename string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = data
	return nil
}

func fastOptions(concurrency int) Options {
	return Options{
		Timeout:          200 * time.Millisecond,
		ProgressInterval: 5 * time.Millisecond,
		ProgressStep:     10,
		Concurrency:      concurrency,
	}
}

func TestFallbackFilename(t *testing.T) {
	assert.Equal(t, "Track A.flac", FallbackFilename("Track A", model.QualityLossless))
	assert.Equal(t, "Track A.mp3", FallbackFilename("Track A", model.QualityExhigh))
	assert.Equal(t, "Track A.mp3", FallbackFilename("Track A", model.QualityStandard))
}

func TestOrchestrator_Single_Success(t *testing.T) {
	fetcher := &fakeFetcher{filename: "Artist - Track A.flac"}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(1), zap.NewNop())

	ok := o.Single(context.Background(), model.Track{ID: 1, Name: "Track A"}, model.QualityLossless)
	assert.True(t, ok)
	assert.Contains(t, saver.files, "Artist - Track A.flac")
}

func TestOrchestrator_Single_FallbackFilename(t *testing.T) {
	// Сервер не прислал имя файла
	fetcher := &fakeFetcher{}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(1), zap.NewNop())

	ok := o.Single(context.Background(), model.Track{ID: 1, Name: "Track A"}, model.QualityLossless)
	require.True(t, ok)
	assert.Contains(t, saver.files, "Track A.flac")
}

func TestOrchestrator_Single_Failure(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("server unavailable")}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(1), zap.NewNop())

	ok := o.Single(context.Background(), model.Track{ID: 1, Name: "Track A"}, model.QualityExhigh)
	assert.False(t, ok)
	assert.Empty(t, saver.files)
}

func TestOrchestrator_Single_Timeout(t *testing.T) {
	fetcher := &fakeFetcher{delay: time.Second}
	saver := newMemorySaver()

	opts := fastOptions(1)
	opts.Timeout = 20 * time.Millisecond

	o := NewOrchestrator(fetcher, saver, opts, zap.NewNop())

	start := time.Now()
	ok := o.Single(context.Background(), model.Track{ID: 1, Name: "Track A"}, model.QualityExhigh)
	assert.False(t, ok)
	// Вызов разрешился, а не завис до полной задержки
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestJob_SyntheticProgress(t *testing.T) {
	job := NewJob(model.Track{ID: 1, Name: "Track A"}, model.QualityLossless)
	require.True(t, job.start())

	// Прогресс двигается шагами и не пересекает потолок до завершения
	for i := 0; i < 50; i++ {
		job.advance(10)
		assert.LessOrEqual(t, job.Progress(), progressCap)
	}
	assert.Equal(t, progressCap, job.Progress())

	job.finish(StatusSucceeded)
	assert.Equal(t, 100, job.Progress())
	assert.Equal(t, StatusSucceeded, job.Status())

	// Терминальное состояние не перезаписывается
	job.finish(StatusFailed)
	assert.Equal(t, StatusSucceeded, job.Status())
}

func TestJob_ProgressNeverFullBeforeCompletion(t *testing.T) {
	fetcher := &fakeFetcher{delay: 50 * time.Millisecond}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(1), zap.NewNop())

	job := NewJob(model.Track{ID: 1, Name: "Track A"}, model.QualityLossless)

	done := make(chan bool)
	go func() {
		done <- o.run(context.Background(), job)
	}()

	// Пока скачивание идет, прогресс ниже 100
	for {
		select {
		case ok := <-done:
			assert.True(t, ok)
			assert.Equal(t, 100, job.Progress())
			return
		default:
			assert.Less(t, job.Progress(), 100)
			time.Sleep(2 * time.Millisecond)
		}
	}
}

func TestOrchestrator_Batch_Sequential(t *testing.T) {
	fetcher := &fakeFetcher{delay: 10 * time.Millisecond}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(1), zap.NewNop())

	tracks := []model.Track{
		{ID: 1, Name: "One"},
		{ID: 2, Name: "Two"},
		{ID: 3, Name: "Three"},
	}

	batch := o.StartBatch(context.Background(), tracks, model.QualityLossless)
	succeeded, failed, skipped := batch.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 0, skipped)

	// При concurrency=1 запросы никогда не перекрываются
	assert.Equal(t, int32(1), fetcher.maxSeen)
	assert.Len(t, saver.files, 3)
}

func TestOrchestrator_Batch_BoundedConcurrency(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(2), zap.NewNop())

	tracks := make([]model.Track, 6)
	for i := range tracks {
		tracks[i] = model.Track{ID: int64(i + 1), Name: fmt.Sprintf("Track %d", i+1)}
	}

	batch := o.StartBatch(context.Background(), tracks, model.QualityLossless)
	succeeded, _, _ := batch.Wait()

	assert.Equal(t, 6, succeeded)
	assert.LessOrEqual(t, fetcher.maxSeen, int32(2))
}

func TestOrchestrator_Batch_Cancel(t *testing.T) {
	fetcher := &fakeFetcher{delay: 30 * time.Millisecond}
	saver := newMemorySaver()

	o := NewOrchestrator(fetcher, saver, fastOptions(1), zap.NewNop())

	tracks := make([]model.Track, 10)
	for i := range tracks {
		tracks[i] = model.Track{ID: int64(i + 1), Name: fmt.Sprintf("Track %d", i+1)}
	}

	batch := o.StartBatch(context.Background(), tracks, model.QualityLossless)

	// Даем первому заданию стартовать и отменяем пакет
	time.Sleep(10 * time.Millisecond)
	batch.Cancel()

	succeeded, failed, skipped := batch.Wait()

	// Текущее задание завершилось само, очередь снята
	assert.GreaterOrEqual(t, succeeded, 1)
	assert.Equal(t, 0, failed)
	assert.GreaterOrEqual(t, skipped, 1)
	assert.Equal(t, 10, succeeded+failed+skipped)

	for _, job := range batch.Jobs {
		assert.True(t, job.Status().Terminal())
	}
}
