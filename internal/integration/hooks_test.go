package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/sales"
	"github.com/stockyard-erp/stockyard/internal/stock"
	_ "github.com/stockyard-erp/stockyard/testing"
)

type recordingLedger struct {
	movements []stock.MovementInput
	fail      bool
}

func (r *recordingLedger) RecordMovement(_ context.Context, input stock.MovementInput) (stock.Movement, error) {
	if r.fail {
		return stock.Movement{}, errors.New("boom")
	}
	r.movements = append(r.movements, input)
	return stock.Movement{ID: int64(len(r.movements))}, nil
}

func TestHandleSaleFinalizedRecordsExits(t *testing.T) {
	ledger := &recordingLedger{}
	hooks := NewHooks(ledger, nil)

	soldAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	err := hooks.HandleSaleFinalized(context.Background(), sales.SaleFinalizedEvent{
		SaleID:     7,
		Number:     "V20240601100000-ABCDEF",
		ClientName: "Dupont",
		SoldAt:     soldAt,
		Lines: []sales.FinalizedLine{
			{ProductID: 1, Quantity: 2, UnitPrice: 12.5},
			{ProductID: 2, Quantity: 0, UnitPrice: 7},
			{ProductID: 3, Quantity: 1, UnitPrice: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, ledger.movements, 2, "zero-quantity lines are skipped")

	first := ledger.movements[0]
	require.Equal(t, int64(1), first.ProductID)
	require.Equal(t, stock.KindOut, first.Kind)
	require.Equal(t, stock.ReasonSale, first.Reason)
	require.Equal(t, 2, first.Quantity)
	require.Equal(t, 12.5, first.UnitPrice)
	require.Equal(t, "Dupont", first.Client)
	require.Equal(t, "V20240601100000-ABCDEF", first.Reference)
	require.Equal(t, soldAt, first.OccurredAt)
}

func TestHandleSaleFinalizedRequiresNumber(t *testing.T) {
	hooks := NewHooks(&recordingLedger{}, nil)
	err := hooks.HandleSaleFinalized(context.Background(), sales.SaleFinalizedEvent{SaleID: 1})
	require.Error(t, err)
}

func TestHandleSaleFinalizedPropagatesLedgerError(t *testing.T) {
	hooks := NewHooks(&recordingLedger{fail: true}, nil)
	err := hooks.HandleSaleFinalized(context.Background(), sales.SaleFinalizedEvent{
		Number: "V1",
		Lines:  []sales.FinalizedLine{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)
}

func TestNilHooksAreInert(t *testing.T) {
	var hooks *Hooks
	require.NoError(t, hooks.HandleSaleFinalized(context.Background(), sales.SaleFinalizedEvent{Number: "V1"}))
}
