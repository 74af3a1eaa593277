package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/stock"
)

type memoryRepo struct {
	nextID   int64
	products map[int64]Product
	deleted  map[int64]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, products: make(map[int64]Product), deleted: make(map[int64]Product)}
}

func (m *memoryRepo) List(ctx context.Context, search string, page shared.Pagination) ([]ProductRow, int, error) {
	out := make([]ProductRow, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, ProductRow{Product: p})
	}
	return out, len(out), nil
}

func (m *memoryRepo) ListOptions(ctx context.Context) ([]stock.ProductOption, error) {
	out := make([]stock.ProductOption, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, stock.ProductOption{ID: p.ID, Code: p.Code, Name: p.Name})
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (ProductRow, error) {
	p, ok := m.products[id]
	if !ok {
		return ProductRow{}, shared.ErrNotFound
	}
	return ProductRow{Product: p}, nil
}

func (m *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	for _, existing := range m.products {
		if existing.Code == product.Code {
			return Product{}, shared.ErrConflict
		}
	}
	product.ID = m.nextID
	m.nextID++
	m.products[product.ID] = product
	return product, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	m.products[id] = product
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, id int64) error {
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	m.deleted[id] = p
	return nil
}

func (m *memoryRepo) Restore(ctx context.Context, id int64) error {
	p, ok := m.deleted[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.deleted, id)
	m.products[id] = p
	return nil
}

func TestCreateProductAppliesDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	created, err := svc.Create(context.Background(), Product{
		Code:          " vis-001 ",
		Name:          "Vis à bois 4x40",
		Unit:          UnitBoite,
		PurchasePrice: 2.5,
		SalePrice:     4.0,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "VIS-001", created.Code)
	require.Equal(t, DefaultAlertThreshold, created.AlertThreshold)
	require.InDelta(t, 1.5, created.Margin(), 0.001)
	require.InDelta(t, 60.0, created.MarginPercent(), 0.001)
}

func TestMarginPercentZeroWithoutPurchasePrice(t *testing.T) {
	p := Product{SalePrice: 4.0}
	require.Zero(t, p.MarginPercent())
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	cases := []struct {
		name    string
		product Product
	}{
		{"missing code", Product{Name: "Clous", Unit: UnitKg}},
		{"missing name", Product{Code: "CL-01", Unit: UnitKg}},
		{"bad unit", Product{Code: "CL-01", Name: "Clous", Unit: Unit("TONNE")}},
		{"negative purchase price", Product{Code: "CL-01", Name: "Clous", Unit: UnitKg, PurchasePrice: -1}},
		{"negative sale price", Product{Code: "CL-01", Name: "Clous", Unit: UnitKg, SalePrice: -1}},
		{"negative threshold", Product{Code: "CL-01", Name: "Clous", Unit: UnitKg, AlertThreshold: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.product, 1)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateProductDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	product := Product{Code: "VIS-001", Name: "Vis à bois", Unit: UnitBoite}
	_, err := svc.Create(context.Background(), product, 1)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), product, 1)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestSoftDeletedProductDisappears(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), Product{Code: "VIS-001", Name: "Vis à bois", Unit: UnitBoite}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), created.ID, 1))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.Restore(context.Background(), created.ID, 1))

	restored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "VIS-001", restored.Code)
}
