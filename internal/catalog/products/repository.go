package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/stock"
)

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context, search string, page shared.Pagination) ([]ProductRow, int, error)
	ListOptions(ctx context.Context) ([]stock.ProductOption, error)
	Get(ctx context.Context, id int64) (ProductRow, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
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

// stockExpr derives the stock level from active movements. IN adds,
// OUT subtracts, ADJUSTMENT and RETURN are traced but do not count.
const stockExpr = `COALESCE((
	SELECT SUM(CASE m.kind WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity ELSE 0 END)
	FROM stock_movements m
	WHERE m.product_id = p.id AND m.deleted_at IS NULL
), 0)`

const productRowColumns = `
	p.id, p.code, p.name, p.description, p.category_id, p.supplier_id,
	p.unit, p.purchase_price, p.sale_price, p.alert_threshold,
	p.created_at, p.updated_at,
	COALESCE(c.name, ''), COALESCE(s.name, ''),
	` + stockExpr

func scanProductRow(row pgx.Row) (ProductRow, error) {
	var pr ProductRow
	err := row.Scan(
		&pr.ID, &pr.Code, &pr.Name, &pr.Description, &pr.CategoryID, &pr.SupplierID,
		&pr.Unit, &pr.PurchasePrice, &pr.SalePrice, &pr.AlertThreshold,
		&pr.CreatedAt, &pr.UpdatedAt,
		&pr.CategoryName, &pr.SupplierName,
		&pr.CurrentStock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductRow{}, shared.ErrNotFound
		}
		return ProductRow{}, err
	}
	pr.BelowThreshold = pr.CurrentStock <= pr.AlertThreshold
	return pr, nil
}

func (r *repository) List(ctx context.Context, search string, page shared.Pagination) ([]ProductRow, int, error) {
	base := `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.deleted_at IS NULL`

	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		base += ` AND (p.name ILIKE $1 OR p.code ILIKE $1)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productRowColumns + base + ` ORDER BY p.name`
	argCount := len(args)
	query += ` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ProductRow
	for rows.Next() {
		pr, err := scanProductRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, pr)
	}
	return out, total, rows.Err()
}

// ListOptions returns active products as form options.
func (r *repository) ListOptions(ctx context.Context) ([]stock.ProductOption, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM products WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stock.ProductOption
	for rows.Next() {
		var opt stock.ProductOption
		if err := rows.Scan(&opt.ID, &opt.Code, &opt.Name); err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (ProductRow, error) {
	query := `SELECT ` + productRowColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.id = $1 AND p.deleted_at IS NULL`

	return scanProductRow(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	const query = `
		INSERT INTO products (code, name, description, category_id, supplier_id, unit,
		                      purchase_price, sale_price, alert_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		product.Code, product.Name, product.Description, product.CategoryID, product.SupplierID,
		product.Unit, product.PurchasePrice, product.SalePrice, product.AlertThreshold).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, shared.MapPgError(err)
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	const query = `
		UPDATE products
		SET code = $2, name = $3, description = $4, category_id = $5, supplier_id = $6,
		    unit = $7, purchase_price = $8, sale_price = $9, alert_threshold = $10, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id,
		product.Code, product.Name, product.Description, product.CategoryID, product.SupplierID,
		product.Unit, product.PurchasePrice, product.SalePrice, product.AlertThreshold)
	if err != nil {
		return shared.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete hides the product from listings. Its movement history stays
// intact so past sales and stock still add up.
func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Restore reactivates a soft-deleted product. Fails with a conflict if
// another active product reuses the code in the meantime.
func (r *repository) Restore(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return shared.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
