package sales

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// ProductPricing is what the sales ledger needs to know about a product
// when freezing a line price.
type ProductPricing struct {
	ID        int64
	Name      string
	SalePrice float64
	Active    bool
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	GetSaleForUpdate(ctx context.Context, id int64) (Sale, error)
	GetProductPricing(ctx context.Context, productID int64) (ProductPricing, error)
	InsertLine(ctx context.Context, line SaleLine) (SaleLine, error)
	SoftDeleteLine(ctx context.Context, saleID, lineID int64) error
	ActiveLines(ctx context.Context, saleID int64) ([]SaleLine, error)
	UpdateSale(ctx context.Context, sale Sale) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (SaleDetail, error)
	List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]SaleRow, int, error)
}

// Repository persists the sales ledger in PostgreSQL.
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

const saleColumns = `
	id, number, client_name, client_email, client_phone, status, sold_at,
	total_amount, discount, final_amount, payment_mode, comment, seller_id,
	created_at, updated_at, deleted_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(
		&s.ID, &s.Number, &s.ClientName, &s.ClientEmail, &s.ClientPhone, &s.Status, &s.SoldAt,
		&s.TotalAmount, &s.Discount, &s.FinalAmount, &s.PaymentMode, &s.Comment, &s.SellerID,
		&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	const query = `
		INSERT INTO sales (number, client_name, client_email, client_phone, status, sold_at,
		                   total_amount, discount, final_amount, payment_mode, comment, seller_id,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING ` + saleColumns

	row := t.tx.QueryRow(ctx, query,
		sale.Number, sale.ClientName, sale.ClientEmail, sale.ClientPhone, sale.Status, sale.SoldAt,
		sale.TotalAmount, sale.Discount, sale.FinalAmount, sale.PaymentMode, sale.Comment, sale.SellerID)
	created, err := scanSale(row)
	if err != nil {
		return Sale{}, shared.MapPgError(err)
	}
	return created, nil
}

func (t *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanSale(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) GetProductPricing(ctx context.Context, productID int64) (ProductPricing, error) {
	var p ProductPricing
	err := t.tx.QueryRow(ctx, `SELECT id, name, sale_price, deleted_at IS NULL FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &p.SalePrice, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductPricing{}, shared.ErrNotFound
		}
		return ProductPricing{}, err
	}
	return p, nil
}

func (t *txRepo) InsertLine(ctx context.Context, line SaleLine) (SaleLine, error) {
	const query = `
		INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`

	err := t.tx.QueryRow(ctx, query, line.SaleID, line.ProductID, line.Quantity, line.UnitPrice, line.Amount).
		Scan(&line.ID, &line.CreatedAt)
	if err != nil {
		return SaleLine{}, shared.MapPgError(err)
	}
	return line, nil
}

func (t *txRepo) SoftDeleteLine(ctx context.Context, saleID, lineID int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sale_lines SET deleted_at = NOW() WHERE id = $1 AND sale_id = $2 AND deleted_at IS NULL`,
		lineID, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) ActiveLines(ctx context.Context, saleID int64) ([]SaleLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, amount, created_at
		FROM sale_lines
		WHERE sale_id = $1 AND deleted_at IS NULL
		ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Amount, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *txRepo) UpdateSale(ctx context.Context, sale Sale) error {
	const query = `
		UPDATE sales
		SET client_name = $2, client_email = $3, client_phone = $4, status = $5,
		    total_amount = $6, discount = $7, final_amount = $8,
		    payment_mode = $9, comment = $10, deleted_at = $11, updated_at = NOW()
		WHERE id = $1`

	tag, err := t.tx.Exec(ctx, query, sale.ID,
		sale.ClientName, sale.ClientEmail, sale.ClientPhone, sale.Status,
		sale.TotalAmount, sale.Discount, sale.FinalAmount,
		sale.PaymentMode, sale.Comment, sale.DeletedAt)
	if err != nil {
		return shared.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Get fetches one active sale with its active lines.
func (r *Repository) Get(ctx context.Context, id int64) (SaleDetail, error) {
	query := `
		SELECT s.id, s.number, s.client_name, s.client_email, s.client_phone, s.status, s.sold_at,
		       s.total_amount, s.discount, s.final_amount, s.payment_mode, s.comment, s.seller_id,
		       s.created_at, s.updated_at, s.deleted_at,
		       COALESCE(u.full_name, '')
		FROM sales s
		LEFT JOIN users u ON u.id = s.seller_id
		WHERE s.id = $1 AND s.deleted_at IS NULL`

	var detail SaleDetail
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&detail.ID, &detail.Number, &detail.ClientName, &detail.ClientEmail, &detail.ClientPhone,
		&detail.Status, &detail.SoldAt,
		&detail.TotalAmount, &detail.Discount, &detail.FinalAmount,
		&detail.PaymentMode, &detail.Comment, &detail.SellerID,
		&detail.CreatedAt, &detail.UpdatedAt, &detail.DeletedAt,
		&detail.SellerName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleDetail{}, shared.ErrNotFound
		}
		return SaleDetail{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.sale_id, l.product_id, l.quantity, l.unit_price, l.amount, l.created_at, p.name
		FROM sale_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.sale_id = $1 AND l.deleted_at IS NULL
		ORDER BY l.id`, id)
	if err != nil {
		return SaleDetail{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var line LineRow
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.Amount, &line.CreatedAt, &line.ProductName); err != nil {
			return SaleDetail{}, err
		}
		detail.Lines = append(detail.Lines, line)
	}
	return detail, rows.Err()
}

// List returns active sales matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]SaleRow, int, error) {
	base := `
		FROM sales s
		LEFT JOIN users u ON u.id = s.seller_id
		WHERE s.deleted_at IS NULL`

	args := []any{}
	addArg := func(clause string, value any) {
		args = append(args, value)
		base += ` AND ` + clause + `$` + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		addArg(`s.status = `, filter.Status)
	}
	if !filter.From.IsZero() {
		addArg(`s.sold_at >= `, filter.From)
	}
	if !filter.To.IsZero() {
		addArg(`s.sold_at < `, filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT s.id, s.number, s.client_name, s.client_email, s.client_phone, s.status, s.sold_at,
		       s.total_amount, s.discount, s.final_amount, s.payment_mode, s.comment, s.seller_id,
		       s.created_at, s.updated_at, s.deleted_at,
		       COALESCE(u.full_name, '')` + base + `
		ORDER BY s.sold_at DESC, s.id DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SaleRow
	for rows.Next() {
		var row SaleRow
		err := rows.Scan(
			&row.ID, &row.Number, &row.ClientName, &row.ClientEmail, &row.ClientPhone, &row.Status, &row.SoldAt,
			&row.TotalAmount, &row.Discount, &row.FinalAmount, &row.PaymentMode, &row.Comment, &row.SellerID,
			&row.CreatedAt, &row.UpdatedAt, &row.DeletedAt,
			&row.SellerName,
		)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
