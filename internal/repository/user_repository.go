package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/identity-service/internal/domain"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines read access to resource owners.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// UserWriter is implemented by stores that can be seeded.
type UserWriter interface {
	Upsert(ctx context.Context, user *domain.User) error
}

// SeedUsers upserts users into the writer, stopping at the first failure.
func SeedUsers(ctx context.Context, writer UserWriter, users []domain.User) error {
	for i := range users {
		if err := writer.Upsert(ctx, &users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Username, err)
		}
	}
	return nil
}

// PostgresUserRepository reads users from the users table.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, password_hash, active, claims)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE
        SET username=EXCLUDED.username, password_hash=EXCLUDED.password_hash,
            active=EXCLUDED.active, claims=EXCLUDED.claims, updated_at=NOW()
        RETURNING created_at, updated_at`

	claims := map[string][]string(user.Claims)
	if claims == nil {
		claims = map[string][]string{}
	}
	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Active,
		claims,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, active, claims, created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanOne(ctx, query, id)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, active, claims, created_at, updated_at
        FROM users WHERE username=$1`

	return r.scanOne(ctx, query, username)
}

func (r *PostgresUserRepository) scanOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		user   domain.User
		claims map[string][]string
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Active,
		&claims,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Claims = domain.ClaimSet(claims)
	if user.Claims == nil {
		user.Claims = domain.ClaimSet{}
	}
	return &user, nil
}
