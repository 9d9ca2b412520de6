package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
)

// ProviderRepository implements port.ProviderRepository.
type ProviderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProviderRepository creates a new provider repository.
func NewProviderRepository(db *sql.DB, logger *zap.Logger) port.ProviderRepository {
	return &ProviderRepository{db: db, logger: logger}
}

// FindByNIF retrieves a provider by its normalized tax id.
func (r *ProviderRepository) FindByNIF(ctx context.Context, nif string) (*entity.Provider, error) {
	query := `SELECT id, name, nif, provider_type, created_at FROM providers WHERE nif = ?`

	var provider entity.Provider
	var id, providerType string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, nif).Scan(
		&id,
		&provider.Name,
		&provider.NIF,
		&providerType,
		&provider.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get provider by NIF", zap.String("nif", nif), zap.Error(err))
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	provider.ProviderType = domain.ProviderType(providerType)
	if provider.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	return &provider, nil
}

// Save inserts a provider.
func (r *ProviderRepository) Save(ctx context.Context, provider *entity.Provider) error {
	query := `INSERT INTO providers (id, name, nif, provider_type, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		provider.ID.String(),
		provider.Name,
		provider.NIF,
		string(provider.ProviderType),
		provider.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save provider", zap.String("nif", provider.NIF), zap.Error(err))
		return fmt.Errorf("failed to save provider: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ProviderRepository = (*ProviderRepository)(nil)
