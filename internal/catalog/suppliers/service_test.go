package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	suppliers map[int64]Supplier
	deleted   map[int64]Supplier
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, suppliers: make(map[int64]Supplier), deleted: make(map[int64]Supplier)}
}

func (m *memoryRepo) List(ctx context.Context, search string) ([]Supplier, error) {
	out := make([]Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	supplier.ID = m.nextID
	m.nextID++
	m.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, supplier Supplier) error {
	if _, ok := m.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	supplier.ID = id
	m.suppliers[id] = supplier
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, id int64) error {
	s, ok := m.suppliers[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.suppliers, id)
	m.deleted[id] = s
	return nil
}

func (m *memoryRepo) Restore(ctx context.Context, id int64) error {
	s, ok := m.deleted[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.deleted, id)
	m.suppliers[id] = s
	return nil
}

func TestCreateSupplierDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Supplier{Name: "Brico Fournitures"})
	require.NoError(t, err)
	require.Equal(t, DefaultCountry, created.Country)
	require.Equal(t, DefaultPaymentTerms, created.PaymentTerms)
}

func TestCreateSupplierKeepsExplicitValues(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Supplier{
		Name:         "Outillage Pro",
		Country:      "Belgique",
		PaymentTerms: "60 jours",
	})
	require.NoError(t, err)
	require.Equal(t, "Belgique", created.Country)
	require.Equal(t, "60 jours", created.PaymentTerms)
}

func TestCreateSupplierRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Supplier{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSoftDeleteSupplier(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Supplier{Name: "Brico Fournitures"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.ErrorIs(t, svc.SoftDelete(context.Background(), created.ID), shared.ErrNotFound)

	require.NoError(t, svc.Restore(context.Background(), created.ID))

	restored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Brico Fournitures", restored.Name)
}
