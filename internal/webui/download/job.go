// Package download реализует оркестрацию скачиваний с синтетическим
// индикатором прогресса и ограниченной параллельностью пакетов.
package download

import (
	"sync"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/google/uuid"
)

// Status терминальное состояние задания
type Status int

const (
	// StatusQueued задание ожидает выполнения
	StatusQueued Status = iota

	// StatusRunning задание выполняется
	StatusRunning

	// StatusSucceeded файл получен
	StatusSucceeded

	// StatusFailed сервер или сеть вернули ошибку
	StatusFailed

	// StatusTimedOut превышено время ожидания
	StatusTimedOut

	// StatusSkipped задание снято отменой пакета до старта
	StatusSkipped
)

// String возвращает имя состояния
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal сообщает, завершено ли задание
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut || s == StatusSkipped
}

// progressCap потолок синтетического прогресса до фактического завершения
const progressCap = 90

// Job одно задание на скачивание.
// Живет только на время одной попытки, никуда не сохраняется.
type Job struct {
	ID      string
	TrackID int64
	Name    string
	Quality model.QualityLevel

	mu       sync.Mutex
	progress int
	status   Status
}

// NewJob создает задание для трека
func NewJob(track model.Track, quality model.QualityLevel) *Job {
	return &Job{
		ID:      uuid.NewString(),
		TrackID: track.ID,
		Name:    track.Name,
		Quality: quality,
		status:  StatusQueued,
	}
}

// Progress возвращает прогресс в процентах [0, 100]
func (j *Job) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Status возвращает состояние задания
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// start переводит задание в выполнение; возвращает false если оно снято
func (j *Job) start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusQueued {
		return false
	}
	j.status = StatusRunning
	return true
}

// advance продвигает синтетический прогресс, не пересекая потолок.
// До фактического завершения индикатор никогда не достигает 100%.
func (j *Job) advance(step int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	j.progress += step
	if j.progress > progressCap {
		j.progress = progressCap
	}
}

// finish фиксирует терминальное состояние; успех доводит прогресс до 100
func (j *Job) finish(status Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = status
	if status == StatusSucceeded {
		j.progress = 100
	}
}

// skip снимает невыполненное задание при отмене пакета
func (j *Job) skip() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == StatusQueued {
		j.status = StatusSkipped
	}
}
