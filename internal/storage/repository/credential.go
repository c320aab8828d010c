// Package repository содержит реализации репозиториев для работы с базой данных.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// CredentialRepository реализует интерфейс model.CredentialRepository
type CredentialRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewCredentialRepository создает новый репозиторий сессий
func NewCredentialRepository(db *bun.DB, logger *zap.Logger) model.CredentialRepository {
	return &CredentialRepository{
		db:     db,
		logger: logger,
	}
}

// Get получает последнюю сохраненную сессию
func (r *CredentialRepository) Get() (*model.Credential, error) {
	var credential model.Credential
	ctx := context.Background()
	err := r.db.NewSelect().Model(&credential).
		Order("updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &credential, nil
}

// Save сохраняет сессию, заменяя предыдущую
func (r *CredentialRepository) Save(credential *model.Credential) error {
	ctx := context.Background()

	credential.UpdatedAt = time.Now()

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*model.Credential)(nil)).Where("1=1").Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear previous credential: %w", err)
		}
		if _, err := tx.NewInsert().Model(credential).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// Clear удаляет сохраненную сессию
func (r *CredentialRepository) Clear() error {
	ctx := context.Background()
	_, err := r.db.NewDelete().Model((*model.Credential)(nil)).Where("1=1").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
