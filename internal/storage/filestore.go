package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"go.uber.org/zap"
)

// FileCredentialStore хранит сессию в локальном JSON-файле.
// Используется когда база данных не настроена.
type FileCredentialStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileCredentialStore создает файловое хранилище сессий
func NewFileCredentialStore(path string, logger *zap.Logger) *FileCredentialStore {
	return &FileCredentialStore{
		path:   path,
		logger: logger,
	}
}

// Get читает сессию из файла
func (s *FileCredentialStore) Get() (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var credential model.Credential
	if err := json.Unmarshal(data, &credential); err != nil {
		// Старые версии хранили cookie как plain text
		credential = model.Credential{Cookie: string(data), UpdatedAt: time.Now()}
	}

	if credential.Cookie == "" {
		return nil, nil
	}
	return &credential, nil
}

// Save записывает сессию атомарно через временный файл
func (s *FileCredentialStore) Save(credential *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential.UpdatedAt = time.Now()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(credentialFile{
		Cookie:    credential.Cookie,
		Valid:     credential.Valid,
		VIP:       credential.VIP,
		UpdatedAt: credential.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}

	s.logger.Info("Credential saved to file", zap.String("path", s.path))
	return nil
}

// Clear удаляет файл сессии
func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

// credentialFile формат файла сессии
type credentialFile struct {
	Cookie    string    `json:"cookie"`
	Valid     bool      `json:"valid"`
	VIP       bool      `json:"vip"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemoryHistory хранит историю скачиваний в памяти с ограниченным размером.
// Используется когда база данных не настроена.
type MemoryHistory struct {
	mu      sync.Mutex
	records []model.DownloadRecord
	maxSize int
	total   int
	nextID  int64
}

// NewMemoryHistory создает историю в памяти
func NewMemoryHistory(maxSize int) *MemoryHistory {
	return &MemoryHistory{maxSize: maxSize}
}

// Add добавляет запись, вытесняя самую старую при переполнении
func (h *MemoryHistory) Add(record *model.DownloadRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	record.ID = h.nextID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	h.records = append(h.records, *record)
	if len(h.records) > h.maxSize {
		h.records = h.records[len(h.records)-h.maxSize:]
	}
	h.total++
	return nil
}

// Recent получает последние записи от новых к старым
func (h *MemoryHistory) Recent(limit int) ([]model.DownloadRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit > len(h.records) {
		limit = len(h.records)
	}

	result := make([]model.DownloadRecord, 0, limit)
	for i := len(h.records) - 1; i >= len(h.records)-limit; i-- {
		result = append(result, h.records[i])
	}
	return result, nil
}

// Count получает общее количество записей за время работы
func (h *MemoryHistory) Count() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total, nil
}
