package sales

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/shared"
	_ "github.com/stockyard-erp/stockyard/testing"
)

type memoryRepo struct {
	sales    map[int64]Sale
	lines    map[int64]SaleLine
	products map[int64]ProductPricing
	nextSale int64
	nextLine int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sales:    make(map[int64]Sale),
		lines:    make(map[int64]SaleLine),
		products: make(map[int64]ProductPricing),
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) InsertSale(_ context.Context, sale Sale) (Sale, error) {
	m.nextSale++
	sale.ID = m.nextSale
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = sale.CreatedAt
	m.sales[sale.ID] = sale
	return sale, nil
}

func (m *memoryRepo) GetSaleForUpdate(_ context.Context, id int64) (Sale, error) {
	sale, ok := m.sales[id]
	if !ok || sale.DeletedAt != nil {
		return Sale{}, shared.ErrNotFound
	}
	return sale, nil
}

func (m *memoryRepo) GetProductPricing(_ context.Context, productID int64) (ProductPricing, error) {
	product, ok := m.products[productID]
	if !ok {
		return ProductPricing{}, shared.ErrNotFound
	}
	return product, nil
}

func (m *memoryRepo) InsertLine(_ context.Context, line SaleLine) (SaleLine, error) {
	m.nextLine++
	line.ID = m.nextLine
	line.CreatedAt = time.Now()
	m.lines[line.ID] = line
	return line, nil
}

func (m *memoryRepo) SoftDeleteLine(_ context.Context, saleID, lineID int64) error {
	line, ok := m.lines[lineID]
	if !ok || line.SaleID != saleID || line.DeletedAt != nil {
		return shared.ErrNotFound
	}
	now := time.Now()
	line.DeletedAt = &now
	m.lines[lineID] = line
	return nil
}

func (m *memoryRepo) ActiveLines(_ context.Context, saleID int64) ([]SaleLine, error) {
	var out []SaleLine
	for id := int64(1); id <= m.nextLine; id++ {
		line, ok := m.lines[id]
		if ok && line.SaleID == saleID && line.DeletedAt == nil {
			out = append(out, line)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateSale(_ context.Context, sale Sale) error {
	if _, ok := m.sales[sale.ID]; !ok {
		return shared.ErrNotFound
	}
	sale.UpdatedAt = time.Now()
	m.sales[sale.ID] = sale
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (SaleDetail, error) {
	sale, ok := m.sales[id]
	if !ok || sale.DeletedAt != nil {
		return SaleDetail{}, shared.ErrNotFound
	}
	detail := SaleDetail{SaleRow: SaleRow{Sale: sale}}
	for lineID := int64(1); lineID <= m.nextLine; lineID++ {
		line, ok := m.lines[lineID]
		if ok && line.SaleID == id && line.DeletedAt == nil {
			detail.Lines = append(detail.Lines, LineRow{SaleLine: line, ProductName: m.products[line.ProductID].Name})
		}
	}
	return detail, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter, _ shared.Pagination) ([]SaleRow, int, error) {
	var out []SaleRow
	for id := int64(1); id <= m.nextSale; id++ {
		sale, ok := m.sales[id]
		if !ok || sale.DeletedAt != nil {
			continue
		}
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		out = append(out, SaleRow{Sale: sale})
	}
	return out, len(out), nil
}

type recordingIntegration struct {
	events []SaleFinalizedEvent
}

func (r *recordingIntegration) HandleSaleFinalized(_ context.Context, evt SaleFinalizedEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordingIntegration) {
	t.Helper()
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ID: 1, Name: "Marteau", SalePrice: 12.5, Active: true}
	repo.products[2] = ProductPricing{ID: 2, Name: "Tournevis", SalePrice: 7, Active: true}
	repo.products[3] = ProductPricing{ID: 3, Name: "Clé obsolète", SalePrice: 5, Active: false}
	integration := &recordingIntegration{}
	return NewService(repo, nil, integration), repo, integration
}

// requireTotalsInvariant checks that the stored totals always equal the
// sum of active line amounts minus the discount.
func requireTotalsInvariant(t *testing.T, repo *memoryRepo, saleID int64) {
	t.Helper()
	sale := repo.sales[saleID]
	lines, err := repo.ActiveLines(context.Background(), saleID)
	require.NoError(t, err)
	total := 0.0
	for _, line := range lines {
		total += line.Amount
	}
	require.InDelta(t, total, sale.TotalAmount, 0.001)
	require.InDelta(t, total-sale.Discount, sale.FinalAmount, 0.001)
}

func TestCreateSaleDefaults(t *testing.T) {
	svc, repo, _ := newTestService(t)

	sale, err := svc.Create(context.Background(), CreateInput{ClientName: "  Dupont  ", SellerID: 9})
	require.NoError(t, err)
	require.Equal(t, "Dupont", sale.ClientName)
	require.Equal(t, StatusInProgress, sale.Status)
	require.Equal(t, PaymentCash, sale.PaymentMode)
	require.NotEmpty(t, sale.Number)
	require.Equal(t, byte('V'), sale.Number[0])
	requireTotalsInvariant(t, repo, sale.ID)
}

func TestCreateSaleValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{ClientName: "   "})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{ClientName: "Dupont", Discount: -1})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{ClientName: "Dupont", PaymentMode: "BITCOIN"})
	require.Error(t, err)
}

func TestAddLineFreezesPrice(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)

	line, err := svc.AddLine(ctx, sale.ID, 1, 3, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 12.5, line.UnitPrice)
	require.InDelta(t, 37.5, line.Amount, 0.001)

	// Price changes on the product do not touch existing lines.
	repo.products[1] = ProductPricing{ID: 1, Name: "Marteau", SalePrice: 99, Active: true}
	requireTotalsInvariant(t, repo, sale.ID)
	require.InDelta(t, 37.5, repo.sales[sale.ID].TotalAmount, 0.001)

	override, err := svc.AddLine(ctx, sale.ID, 2, 2, 6.5, 0)
	require.NoError(t, err)
	require.Equal(t, 6.5, override.UnitPrice)
	requireTotalsInvariant(t, repo, sale.ID)
}

func TestAddLineRejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)

	_, err = svc.AddLine(ctx, sale.ID, 1, 0, 0, 0)
	require.Error(t, err)

	_, err = svc.AddLine(ctx, sale.ID, 3, 1, 0, 0)
	require.Error(t, err, "inactive product")

	_, err = svc.AddLine(ctx, 404, 1, 1, 0, 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveLineRecomputesTotals(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont", Discount: 5})
	require.NoError(t, err)
	first, err := svc.AddLine(ctx, sale.ID, 1, 2, 0, 0)
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, sale.ID, 2, 1, 0, 0)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveLine(ctx, sale.ID, first.ID, 0))
	requireTotalsInvariant(t, repo, sale.ID)
	require.InDelta(t, 7, repo.sales[sale.ID].TotalAmount, 0.001)
	require.InDelta(t, 2, repo.sales[sale.ID].FinalAmount, 0.001)
}

func TestFinalizeEmitsEvent(t *testing.T) {
	svc, repo, integration := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, sale.ID, 1, 2, 0, 0)
	require.NoError(t, err)

	finalized, err := svc.Finalize(ctx, sale.ID, []FinalizeItem{{ProductID: 2, Quantity: 3}}, 0)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, finalized.Status)
	require.InDelta(t, 25+21, finalized.TotalAmount, 0.001)
	requireTotalsInvariant(t, repo, sale.ID)

	require.Len(t, integration.events, 1)
	evt := integration.events[0]
	require.Equal(t, sale.ID, evt.SaleID)
	require.Equal(t, finalized.Number, evt.Number)
	require.Equal(t, "Dupont", evt.ClientName)
	require.Len(t, evt.Lines, 2)
	require.Equal(t, int64(1), evt.Lines[0].ProductID)
	require.Equal(t, 2, evt.Lines[0].Quantity)
	require.Equal(t, int64(2), evt.Lines[1].ProductID)
	require.Equal(t, 3, evt.Lines[1].Quantity)
}

func TestFinalizeEmptySaleRejected(t *testing.T) {
	svc, _, integration := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, sale.ID, nil, 0)
	require.Error(t, err)
	require.Empty(t, integration.events)
}

func TestFinalizeTwiceRejected(t *testing.T) {
	svc, _, integration := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, sale.ID, 1, 1, 0, 0)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, sale.ID, nil, 0)
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, sale.ID, nil, 0)
	require.Error(t, err)
	require.Len(t, integration.events, 1)

	_, err = svc.AddLine(ctx, sale.ID, 2, 1, 0, 0)
	require.Error(t, err, "completed sale is frozen")
}

func TestUpdateRederivesFinalAmount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, sale.ID, 1, 4, 0, 0)
	require.NoError(t, err)

	err = svc.Update(ctx, sale.ID, UpdateInput{ClientName: "Martin", Discount: 10, PaymentMode: PaymentCard}, 0)
	require.NoError(t, err)

	updated := repo.sales[sale.ID]
	require.Equal(t, "Martin", updated.ClientName)
	require.Equal(t, PaymentCard, updated.PaymentMode)
	require.InDelta(t, 50, updated.TotalAmount, 0.001)
	require.InDelta(t, 40, updated.FinalAmount, 0.001)
	requireTotalsInvariant(t, repo, sale.ID)
}

func TestCancelOnlyInProgress(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, sale.ID, 0))
	require.Equal(t, StatusCancelled, repo.sales[sale.ID].Status)

	require.Error(t, svc.Cancel(ctx, sale.ID, 0))

	other, err := svc.Create(ctx, CreateInput{ClientName: "Martin"})
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, other.ID, 1, 1, 0, 0)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, other.ID, nil, 0)
	require.NoError(t, err)
	require.Error(t, svc.Cancel(ctx, other.ID, 0))
}

func TestSoftDeleteHidesSaleKeepsLines(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateInput{ClientName: "Dupont"})
	require.NoError(t, err)
	line, err := svc.AddLine(ctx, sale.ID, 1, 1, 0, 0)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, sale.ID, 0))
	require.NotNil(t, repo.sales[sale.ID].DeletedAt)
	require.Nil(t, repo.lines[line.ID].DeletedAt)

	_, err = svc.Get(ctx, sale.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	rows, total, err := svc.List(ctx, ListFilter{}, shared.NewPagination(1, 20, 0))
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, rows)
}

func TestSaleNumberFormat(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 9, 0, time.UTC)
	number := NewSaleNumber(now)
	require.Len(t, number, 22)
	require.Equal(t, "V20240305143009-", number[:16])
	require.Equal(t, number[16:], strings.ToUpper(number[16:]))
}
