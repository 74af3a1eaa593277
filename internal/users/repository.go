package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	List(ctx context.Context, search string) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) error
	SoftDelete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, email, full_name, password_hash, role, phone, hired_at, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.Phone, &u.HiredAt, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) List(ctx context.Context, search string) ([]User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY full_name`

	rows, err := r.pool.Query(ctx, query, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanUser(row)
}

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (email, full_name, password_hash, role, phone, hired_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, user.Email, user.FullName, user.PasswordHash, user.Role, user.Phone, user.HiredAt, user.Active)
	created, err := scanUser(row)
	if err != nil {
		return User{}, shared.MapPgError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, user User) error {
	const query = `
		UPDATE users
		SET email = $2, full_name = $3, password_hash = $4, role = $5, phone = $6, hired_at = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.FullName, user.PasswordHash, user.Role, user.Phone, user.HiredAt, user.Active)
	if err != nil {
		return shared.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
