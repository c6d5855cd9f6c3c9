package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkrylov/coinledger/internal/application/ports"
	"github.com/dkrylov/coinledger/internal/domain/entities"
	domainErrors "github.com/dkrylov/coinledger/internal/domain/errors"
)

// Compile-time check
var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts a user; the seeder makes it re-runnable with ON CONFLICT.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO users (id, username, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
	`

	_, err := q.Exec(ctx, query, user.ID, user.Username, string(user.Role), user.CreatedAt)
	if err != nil {
		return domainErrors.NewStorageError("user.save", err)
	}
	return nil
}

// FindByID loads a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := `SELECT id, username, role, created_at FROM users WHERE id = $1`
	return r.scanUser(r.getQuerier(ctx).QueryRow(ctx, query, id))
}

// FindByUsername loads a user by its unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT id, username, role, created_at FROM users WHERE username = $1`
	return r.scanUser(r.getQuerier(ctx).QueryRow(ctx, query, username))
}

// FindSystemUser returns the unique SYSTEM user owning the treasuries.
func (r *UserRepository) FindSystemUser(ctx context.Context) (*entities.User, error) {
	query := `SELECT id, username, role, created_at FROM users WHERE role = 'SYSTEM' LIMIT 1`
	return r.scanUser(r.getQuerier(ctx).QueryRow(ctx, query))
}

func (r *UserRepository) scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	var role string

	err := row.Scan(&user.ID, &user.Username, &role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Role = entities.UserRole(role)
	return &user, nil
}
