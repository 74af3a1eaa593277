package sales

import (
	"context"
	"time"
)

// FinalizedLine is one line of a completed sale, as seen by integrations.
type FinalizedLine struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

// SaleFinalizedEvent is emitted after a sale reaches COMPLETED.
type SaleFinalizedEvent struct {
	SaleID     int64
	Number     string
	ClientName string
	SoldAt     time.Time
	Lines      []FinalizedLine
}

// IntegrationHandler consumes sale lifecycle events. The stock ledger
// hooks in here to record the outbound movements.
type IntegrationHandler interface {
	HandleSaleFinalized(ctx context.Context, evt SaleFinalizedEvent) error
}
