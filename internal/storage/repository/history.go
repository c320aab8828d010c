package repository

import (
	"context"
	"fmt"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// HistoryRepository реализует интерфейс model.HistoryRepository
type HistoryRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewHistoryRepository создает новый репозиторий истории скачиваний
func NewHistoryRepository(db *bun.DB, logger *zap.Logger) model.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Add добавляет запись в историю
func (r *HistoryRepository) Add(record *model.DownloadRecord) error {
	ctx := context.Background()
	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add download record: %w", err)
	}
	return nil
}

// Recent получает последние записи истории
func (r *HistoryRepository) Recent(limit int) ([]model.DownloadRecord, error) {
	var records []model.DownloadRecord
	ctx := context.Background()
	err := r.db.NewSelect().Model(&records).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get download history: %w", err)
	}
	return records, nil
}

// Count получает общее количество записей
func (r *HistoryRepository) Count() (int, error) {
	ctx := context.Background()
	count, err := r.db.NewSelect().Model((*model.DownloadRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count download history: %w", err)
	}
	return count, nil
}
