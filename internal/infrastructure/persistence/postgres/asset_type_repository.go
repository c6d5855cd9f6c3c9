package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
)

// Compile-time check
var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

// AssetTypeRepository implements ports.AssetTypeRepository.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

// NewAssetTypeRepository creates an AssetTypeRepository.
func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

func (r *AssetTypeRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts an asset type; re-runnable for the seeder.
func (r *AssetTypeRepository) Save(ctx context.Context, assetType *entities.AssetType) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO asset_types (id, code, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`

	_, err := q.Exec(ctx, query, assetType.ID, assetType.Code, assetType.Name, assetType.CreatedAt)
	if err != nil {
		return domainErrors.NewStorageError("asset_type.save", err)
	}
	return nil
}

// FindByCode loads an asset type by its unique code.
func (r *AssetTypeRepository) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	query := `SELECT id, code, name, created_at FROM asset_types WHERE code = $1`

	var at entities.AssetType
	err := r.getQuerier(ctx).QueryRow(ctx, query, code).Scan(&at.ID, &at.Code, &at.Name, &at.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAssetTypeNotFound
		}
		return nil, fmt.Errorf("failed to scan asset type: %w", err)
	}
	return &at, nil
}

// List returns all asset types ordered by code.
func (r *AssetTypeRepository) List(ctx context.Context) ([]*entities.AssetType, error) {
	query := `SELECT id, code, name, created_at FROM asset_types ORDER BY code ASC`

	rows, err := r.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	defer rows.Close()

	var result []*entities.AssetType
	for rows.Next() {
		var at entities.AssetType
		if err := rows.Scan(&at.ID, &at.Code, &at.Name, &at.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset type row: %w", err)
		}
		result = append(result, &at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset type rows: %w", err)
	}
	return result, nil
}
