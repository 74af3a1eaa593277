package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MovementStats partitions one day of movements by kind and derives the
// sales figures carried by the ledger.
type MovementStats struct {
	In          int
	Out         int
	Adjustments int
	Returns     int
	Revenue     float64
	SalesCount  int
}

// SaleStats restates the day from the sales ledger.
type SaleStats struct {
	CompletedCount   int
	CompletedRevenue float64
	Discounts        float64
}

// RepositoryPort abstracts report queries for the service.
type RepositoryPort interface {
	MovementStats(ctx context.Context, from, to time.Time) (MovementStats, error)
	SaleStats(ctx context.Context, from, to time.Time) (SaleStats, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	AlertCount(ctx context.Context) (int, error)
}

// Repository reads report data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MovementStats aggregates active movements in [from, to).
func (r *Repository) MovementStats(ctx context.Context, from, to time.Time) (MovementStats, error) {
	const query = `
		SELECT COUNT(*) FILTER (WHERE kind = 'IN'),
		       COUNT(*) FILTER (WHERE kind = 'OUT'),
		       COUNT(*) FILTER (WHERE kind = 'ADJUSTMENT'),
		       COUNT(*) FILTER (WHERE kind = 'RETURN'),
		       COALESCE(SUM(unit_price * quantity) FILTER (WHERE kind = 'OUT' AND reason = 'SALE'), 0),
		       COUNT(DISTINCT reference) FILTER (WHERE kind = 'OUT' AND reason = 'SALE')
		FROM stock_movements
		WHERE deleted_at IS NULL AND occurred_at >= $1 AND occurred_at < $2`

	var s MovementStats
	err := r.pool.QueryRow(ctx, query, from, to).
		Scan(&s.In, &s.Out, &s.Adjustments, &s.Returns, &s.Revenue, &s.SalesCount)
	return s, err
}

// SaleStats aggregates completed sales sold in [from, to).
func (r *Repository) SaleStats(ctx context.Context, from, to time.Time) (SaleStats, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(final_amount), 0),
		       COALESCE(SUM(discount), 0)
		FROM sales
		WHERE deleted_at IS NULL AND status = 'COMPLETED' AND sold_at >= $1 AND sold_at < $2`

	var s SaleStats
	err := r.pool.QueryRow(ctx, query, from, to).
		Scan(&s.CompletedCount, &s.CompletedRevenue, &s.Discounts)
	return s, err
}

// TopProducts ranks products by revenue on completed sales in [from, to).
func (r *Repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	const query = `
		SELECT p.name, SUM(l.quantity)::int, SUM(l.amount)
		FROM sale_lines l
		JOIN sales s ON s.id = l.sale_id
		JOIN products p ON p.id = l.product_id
		WHERE l.deleted_at IS NULL AND s.deleted_at IS NULL
		  AND s.status = 'COMPLETED' AND s.sold_at >= $1 AND s.sold_at < $2
		GROUP BY p.name
		ORDER BY SUM(l.amount) DESC, p.name
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductName, &t.Quantity, &t.Amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AlertCount counts active products at or below their alert threshold.
func (r *Repository) AlertCount(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*) FROM (
			SELECT p.id
			FROM products p
			LEFT JOIN stock_movements m ON m.product_id = p.id AND m.deleted_at IS NULL
			WHERE p.deleted_at IS NULL
			GROUP BY p.id, p.alert_threshold
			HAVING COALESCE(SUM(CASE m.kind WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity ELSE 0 END), 0) <= p.alert_threshold
		) below`

	var count int
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

var _ RepositoryPort = (*Repository)(nil)
