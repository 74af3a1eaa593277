package integration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stockyard-erp/stockyard/internal/sales"
	"github.com/stockyard-erp/stockyard/internal/stock"
)

// StockLedger exposes the movement recording operation required by
// integrations.
type StockLedger interface {
	RecordMovement(ctx context.Context, input stock.MovementInput) (stock.Movement, error)
}

// Hooks wires domain events from the sales ledger into the stock ledger.
type Hooks struct {
	ledger StockLedger
	logger *slog.Logger
}

// NewHooks constructs integration hooks.
func NewHooks(ledger StockLedger, logger *slog.Logger) *Hooks {
	return &Hooks{ledger: ledger, logger: logger}
}

// HandleSaleFinalized records one stock exit per sale line. The sale
// number goes into the movement reference so the exit can be traced
// back to its ticket.
func (h *Hooks) HandleSaleFinalized(ctx context.Context, evt sales.SaleFinalizedEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.Number == "" {
		return errors.New("integration: sale number required")
	}
	for _, line := range evt.Lines {
		if line.Quantity <= 0 {
			continue
		}
		_, err := h.ledger.RecordMovement(ctx, stock.MovementInput{
			ProductID:  line.ProductID,
			Kind:       stock.KindOut,
			Reason:     stock.ReasonSale,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Client:     evt.ClientName,
			Reference:  evt.Number,
			OccurredAt: evt.SoldAt,
		})
		if err != nil {
			if h.logger != nil {
				h.logger.Error("record sale exit",
					slog.Any("error", err),
					slog.String("number", evt.Number),
					slog.Int64("product_id", line.ProductID),
				)
			}
			return err
		}
	}
	return nil
}

var _ sales.IntegrationHandler = (*Hooks)(nil)
