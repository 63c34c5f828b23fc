package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooddash/api/internal/domain"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.AppUser, error) {
	const query = `
SELECT id, phone_or_email, role, COALESCE(password_hash, ''), created_at
FROM users
WHERE phone_or_email = $1`

	var u domain.AppUser
	var role string
	err := r.pool.QueryRow(ctx, query, identifier).
		Scan(&u.ID, &u.PhoneOrEmail, &role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// CreateUser inserts a new user. The uniqueness constraint on phone_or_email
// maps to domain.ErrUserExists so concurrent first logins can re-fetch.
func (r *UserRepository) CreateUser(ctx context.Context, user domain.AppUser) (domain.AppUser, error) {
	const stmt = `
INSERT INTO users (id, phone_or_email, role, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

	var hash any
	if user.PasswordHash != "" {
		hash = user.PasswordHash
	}

	err := r.pool.QueryRow(ctx, stmt, user.ID, user.PhoneOrEmail, string(user.Role), hash).
		Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AppUser{}, domain.ErrUserExists
		}
		return domain.AppUser{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates or updates the admin account for identifier. Used by
// seeding.
func (r *UserRepository) EnsureAdmin(ctx context.Context, id, identifier, secret string) error {
	const stmt = `
INSERT INTO users (id, phone_or_email, role, password_hash)
VALUES ($1, $2, $3, $4)
ON CONFLICT (phone_or_email)
DO UPDATE SET role = EXCLUDED.role, password_hash = EXCLUDED.password_hash`

	if _, err := r.pool.Exec(ctx, stmt, id, identifier, string(domain.RoleAdmin), secret); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}
