package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// Repository defines persistence operations for suppliers.
type Repository interface {
	List(ctx context.Context, search string) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, supplier Supplier) error
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

const supplierColumns = `id, name, contact_name, phone, email, address, city, postal_code, country, vat_number, payment_terms, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactName, &s.Phone, &s.Email, &s.Address, &s.City, &s.PostalCode, &s.Country, &s.VATNumber, &s.PaymentTerms, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, search string) ([]Supplier, error) {
	const query = `
		SELECT ` + supplierColumns + `
		FROM suppliers
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR contact_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanSupplier(row)
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	const query = `
		INSERT INTO suppliers (name, contact_name, phone, email, address, city, postal_code, country, vat_number, payment_terms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING ` + supplierColumns

	row := r.pool.QueryRow(ctx, query,
		supplier.Name, supplier.ContactName, supplier.Phone, supplier.Email,
		supplier.Address, supplier.City, supplier.PostalCode, supplier.Country,
		supplier.VATNumber, supplier.PaymentTerms)
	created, err := scanSupplier(row)
	if err != nil {
		return Supplier{}, shared.MapPgError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, supplier Supplier) error {
	const query = `
		UPDATE suppliers
		SET name = $2, contact_name = $3, phone = $4, email = $5,
		    address = $6, city = $7, postal_code = $8, country = $9,
		    vat_number = $10, payment_terms = $11, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id,
		supplier.Name, supplier.ContactName, supplier.Phone, supplier.Email,
		supplier.Address, supplier.City, supplier.PostalCode, supplier.Country,
		supplier.VATNumber, supplier.PaymentTerms)
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
		`UPDATE suppliers SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
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
		`UPDATE suppliers SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
