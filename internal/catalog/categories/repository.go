package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// Repository defines persistence operations for categories.
type Repository interface {
	List(ctx context.Context, query string) ([]CategoryRow, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, id int64, category Category) error
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search string) ([]CategoryRow, error) {
	const query = `
		SELECT c.id, c.name, c.description, c.color, c.created_at, c.updated_at,
		       COUNT(p.id) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
		  AND ($1 = '' OR c.name ILIKE '%' || $1 || '%' OR c.description ILIKE '%' || $1 || '%')
		GROUP BY c.id
		ORDER BY c.name`

	rows, err := r.pool.Query(ctx, query, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var row CategoryRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Description, &row.Color, &row.CreatedAt, &row.UpdatedAt, &row.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	const query = `SELECT id, name, description, color, created_at, updated_at FROM categories WHERE id = $1 AND deleted_at IS NULL`

	var c Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, category Category) (Category, error) {
	const query = `
		INSERT INTO categories (name, description, color, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, description, color, created_at, updated_at`

	var created Category
	err := r.pool.QueryRow(ctx, query, category.Name, category.Description, category.Color).
		Scan(&created.ID, &created.Name, &created.Description, &created.Color, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return Category{}, shared.MapPgError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, category Category) error {
	const query = `
		UPDATE categories
		SET name = $2, description = $3, color = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, category.Name, category.Description, category.Color)
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
		`UPDATE categories SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Restore(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return shared.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
