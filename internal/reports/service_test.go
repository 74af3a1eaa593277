package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/stockyard-erp/stockyard/testing"
)

type staticRepo struct {
	movements MovementStats
	sales     SaleStats
	top       []TopProduct
	alerts    int

	from time.Time
	to   time.Time
	fail bool
}

func (s *staticRepo) MovementStats(_ context.Context, from, to time.Time) (MovementStats, error) {
	if s.fail {
		return MovementStats{}, errors.New("boom")
	}
	s.from, s.to = from, to
	return s.movements, nil
}

func (s *staticRepo) SaleStats(context.Context, time.Time, time.Time) (SaleStats, error) {
	return s.sales, nil
}

func (s *staticRepo) TopProducts(context.Context, time.Time, time.Time, int) ([]TopProduct, error) {
	return s.top, nil
}

func (s *staticRepo) AlertCount(context.Context) (int, error) {
	return s.alerts, nil
}

func TestDailyReportAggregates(t *testing.T) {
	repo := &staticRepo{
		movements: MovementStats{In: 4, Out: 9, Adjustments: 1, Returns: 2, Revenue: 312.5, SalesCount: 6},
		sales:     SaleStats{CompletedCount: 6, CompletedRevenue: 300, Discounts: 12.5},
		top:       []TopProduct{{ProductName: "Vis 4x40", Quantity: 30, Amount: 75}},
		alerts:    3,
	}
	svc := NewService(repo)

	day := time.Date(2024, 6, 1, 15, 42, 0, 0, time.UTC)
	report, err := svc.DailyReport(context.Background(), day)
	require.NoError(t, err)

	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), report.Day)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), repo.from)
	require.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), repo.to)

	require.Equal(t, 4, report.StockIn)
	require.Equal(t, 9, report.StockOut)
	require.Equal(t, 1, report.Adjustments)
	require.Equal(t, 2, report.Returns)
	require.Equal(t, 312.5, report.Revenue)
	require.Equal(t, 6, report.SalesCount)
	require.Equal(t, 6, report.CompletedCount)
	require.Equal(t, 300.0, report.CompletedRevenue)
	require.Equal(t, 12.5, report.Discounts)
	require.Equal(t, 3, report.AlertCount)
	require.Len(t, report.TopProducts, 1)
}

func TestDailyReportPropagatesErrors(t *testing.T) {
	svc := NewService(&staticRepo{fail: true})
	_, err := svc.DailyReport(context.Background(), time.Now())
	require.Error(t, err)
}

func TestEmailBodyContainsFigures(t *testing.T) {
	body := EmailBody(DailyReport{
		Day:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		StockIn:    4,
		StockOut:   9,
		Revenue:    312.5,
		SalesCount: 6,
		AlertCount: 3,
		TopProducts: []TopProduct{
			{ProductName: "Vis 4x40", Quantity: 30, Amount: 75},
		},
	})

	require.Contains(t, body, "01/06/2024")
	require.Contains(t, body, "Ventes finalisées : 6")
	require.Contains(t, body, "Entrées de stock : 4")
	require.Contains(t, body, "Sorties de stock : 9")
	require.Contains(t, body, "Produits en alerte : 3")
	require.Contains(t, body, "Vis 4x40")
}

func TestEmailSubject(t *testing.T) {
	subject := EmailSubject(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Equal(t, "Rapport journalier du 01/06/2024", subject)
}
