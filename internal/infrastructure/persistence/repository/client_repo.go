package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain/entity"
)

// ClientRepository implements port.ClientRepository.
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sql.DB, logger *zap.Logger) port.ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

// FindByNIF retrieves a client by its normalized tax id.
func (r *ClientRepository) FindByNIF(ctx context.Context, nif string) (*entity.Client, error) {
	query := `SELECT id, name, nif, created_at FROM clients WHERE nif = ?`

	var client entity.Client
	var id string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, nif).Scan(
		&id,
		&client.Name,
		&client.NIF,
		&client.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client by NIF", zap.String("nif", nif), zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if client.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	return &client, nil
}

// Save inserts a client.
func (r *ClientRepository) Save(ctx context.Context, client *entity.Client) error {
	query := `INSERT INTO clients (id, name, nif, created_at) VALUES (?, ?, ?, ?)`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		client.ID.String(),
		client.Name,
		client.NIF,
		client.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save client", zap.String("nif", client.NIF), zap.Error(err))
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ClientRepository = (*ClientRepository)(nil)
