// Package cache реализует кэширование разрешенных коллекций каталога.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// Entry запись кэша
type Entry struct {
	Collection *model.Collection
	Timestamp  time.Time
}

// Manager хранит разрешенные коллекции с ограниченным временем жизни.
// Повторный разбор того же плейлиста или альбома не дергает каталог.
type Manager struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	duration time.Duration
	logger   *zap.Logger

	hits   int64
	misses int64
}

// NewManager создает новый менеджер кэша
func NewManager(duration time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		entries:  make(map[string]Entry),
		duration: duration,
		logger:   logger,
	}
}

// key строит ключ кэша по типу и идентификатору коллекции
func key(kind model.CollectionKind, id int64) string {
	return fmt.Sprintf("%s-%d", kind, id)
}

// Get возвращает коллекцию из кэша если запись еще актуальна
func (m *Manager) Get(kind model.CollectionKind, id int64) (*model.Collection, bool) {
	m.mu.RLock()
	entry, exists := m.entries[key(kind, id)]
	m.mu.RUnlock()

	if !exists || time.Since(entry.Timestamp) >= m.duration {
		m.mu.Lock()
		m.misses++
		m.mu.Unlock()
		return nil, false
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()

	m.logger.Debug("Collection cache hit",
		zap.String("kind", string(kind)),
		zap.Int64("id", id))

	return entry.Collection, true
}

// Store сохраняет коллекцию в кэш
func (m *Manager) Store(collection *model.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key(collection.Kind, collection.ID)] = Entry{
		Collection: collection,
		Timestamp:  time.Now(),
	}
}

// Invalidate удаляет запись из кэша
func (m *Manager) Invalidate(kind model.CollectionKind, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key(kind, id))
}

// Cleanup удаляет устаревшие записи
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, entry := range m.entries {
		if time.Since(entry.Timestamp) >= m.duration {
			delete(m.entries, k)
		}
	}
}

// Stats возвращает счетчики попаданий и промахов
func (m *Manager) Stats() (hits, misses int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}
