package alerting

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts alert queries for the service.
type RepositoryPort interface {
	BelowThreshold(ctx context.Context) ([]Alert, error)
}

// Repository reads alert data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BelowThreshold returns every active product whose derived stock sits
// at or below its alert threshold. One aggregation pass, no per-product
// queries.
func (r *Repository) BelowThreshold(ctx context.Context) ([]Alert, error) {
	const query = `
		SELECT p.id, p.code, p.name,
		       COALESCE(SUM(CASE m.kind WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity ELSE 0 END), 0)::int AS current_stock,
		       p.alert_threshold,
		       COALESCE(s.name, '')
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id AND m.deleted_at IS NULL
		LEFT JOIN suppliers s ON s.id = p.supplier_id AND s.deleted_at IS NULL
		WHERE p.deleted_at IS NULL
		GROUP BY p.id, p.code, p.name, p.alert_threshold, s.name
		HAVING COALESCE(SUM(CASE m.kind WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity ELSE 0 END), 0) <= p.alert_threshold
		ORDER BY current_stock ASC, p.code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ProductID, &a.ProductCode, &a.ProductName, &a.CurrentStock, &a.Threshold, &a.SupplierName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
