package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

type memoryRepo struct {
	nextID     int64
	categories map[int64]Category
	deleted    map[int64]Category
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, categories: make(map[int64]Category), deleted: make(map[int64]Category)}
}

func (m *memoryRepo) List(ctx context.Context, search string) ([]CategoryRow, error) {
	out := make([]CategoryRow, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, CategoryRow{Category: c})
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) Create(ctx context.Context, category Category) (Category, error) {
	category.ID = m.nextID
	m.nextID++
	m.categories[category.ID] = category
	return category, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, category Category) error {
	if _, ok := m.categories[id]; !ok {
		return shared.ErrNotFound
	}
	category.ID = id
	m.categories[id] = category
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, id int64) error {
	c, ok := m.categories[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.categories, id)
	m.deleted[id] = c
	return nil
}

func (m *memoryRepo) Restore(ctx context.Context, id int64) error {
	c, ok := m.deleted[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.deleted, id)
	m.categories[id] = c
	return nil
}

func TestCreateCategoryTrimsAndValidates(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Category{Name: "  Quincaillerie  ", Description: " vis et boulons "})
	require.NoError(t, err)
	require.Equal(t, "Quincaillerie", created.Name)
	require.Equal(t, "vis et boulons", created.Description)

	_, err = svc.Create(context.Background(), Category{Name: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateCategoryColor(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Category{Name: "Peinture"})
	require.NoError(t, err)
	require.Equal(t, DefaultColor, created.Color)

	created, err = svc.Create(context.Background(), Category{Name: "Outillage", Color: "#FF8800"})
	require.NoError(t, err)
	require.Equal(t, "#FF8800", created.Color)

	_, err = svc.Create(context.Background(), Category{Name: "Jardin", Color: "rouge"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateCategoryUnknownID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	err := svc.Update(context.Background(), 42, Category{Name: "Peinture"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Update(context.Background(), 0, Category{Name: "Peinture"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSoftDeleteCategory(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Category{Name: "Plomberie"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.ErrorIs(t, svc.SoftDelete(context.Background(), created.ID), shared.ErrNotFound)

	require.NoError(t, svc.Restore(context.Background(), created.ID))

	restored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Plomberie", restored.Name)
}
