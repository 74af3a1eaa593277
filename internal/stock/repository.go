package stock

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	ProductIsActive(ctx context.Context, productID int64) (bool, error)
	InsertMovement(ctx context.Context, movement Movement) (Movement, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CurrentStock(ctx context.Context, productID int64) (int, error)
	ListMovements(ctx context.Context, filter MovementFilter, page shared.Pagination) ([]MovementRow, int, error)
}

// Repository persists the stock ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (t *txRepo) ProductIsActive(ctx context.Context, productID int64) (bool, error) {
	var active bool
	err := t.tx.QueryRow(ctx, `SELECT deleted_at IS NULL FROM products WHERE id = $1`, productID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, shared.ErrNotFound
		}
		return false, err
	}
	return active, nil
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	const query = `
		INSERT INTO stock_movements (product_id, kind, reason, quantity, unit_price,
		                             supplier_id, client, reference, comment, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at`

	err := t.tx.QueryRow(ctx, query,
		m.ProductID, m.Kind, m.Reason, m.Quantity, m.UnitPrice,
		m.SupplierID, m.Client, m.Reference, m.Comment, m.OccurredAt).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Movement{}, shared.MapPgError(err)
	}
	return m, nil
}

// CurrentStock derives the stock level from active movements in a single
// aggregate query.
func (r *Repository) CurrentStock(ctx context.Context, productID int64) (int, error) {
	const query = `
		SELECT COALESCE(SUM(CASE kind WHEN 'IN' THEN quantity WHEN 'OUT' THEN -quantity ELSE 0 END), 0)
		FROM stock_movements
		WHERE product_id = $1 AND deleted_at IS NULL`

	var level int
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&level); err != nil {
		return 0, err
	}
	return level, nil
}

func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter, page shared.Pagination) ([]MovementRow, int, error) {
	base := `
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		LEFT JOIN suppliers s ON s.id = m.supplier_id
		WHERE m.deleted_at IS NULL`

	args := []any{}
	addArg := func(clause string, value any) {
		args = append(args, value)
		base += ` AND ` + clause + `$` + strconv.Itoa(len(args))
	}

	if filter.ProductID != 0 {
		addArg(`m.product_id = `, filter.ProductID)
	}
	if filter.Kind != "" {
		addArg(`m.kind = `, filter.Kind)
	}
	if filter.Reason != "" {
		addArg(`m.reason = `, filter.Reason)
	}
	if !filter.From.IsZero() {
		addArg(`m.occurred_at >= `, filter.From)
	}
	if !filter.To.IsZero() {
		addArg(`m.occurred_at < `, filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT m.id, m.product_id, m.kind, m.reason, m.quantity, m.unit_price,
		       m.supplier_id, m.client, m.reference, m.comment, m.occurred_at, m.created_at,
		       p.code, p.name, COALESCE(s.name, '')` + base + `
		ORDER BY m.occurred_at DESC, m.id DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []MovementRow
	for rows.Next() {
		var row MovementRow
		err := rows.Scan(
			&row.ID, &row.ProductID, &row.Kind, &row.Reason, &row.Quantity, &row.UnitPrice,
			&row.SupplierID, &row.Client, &row.Reference, &row.Comment, &row.OccurredAt, &row.CreatedAt,
			&row.ProductCode, &row.ProductName, &row.SupplierName,
		)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
