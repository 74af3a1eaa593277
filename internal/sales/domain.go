package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaleStatus enumerates the sale lifecycle.
type SaleStatus string

const (
	// StatusInProgress is the initial state, lines can still change.
	StatusInProgress SaleStatus = "IN_PROGRESS"
	// StatusCompleted marks a finalized sale.
	StatusCompleted SaleStatus = "COMPLETED"
	// StatusCancelled marks an abandoned sale.
	StatusCancelled SaleStatus = "CANCELLED"
)

// PaymentMode enumerates accepted payment modes.
type PaymentMode string

const (
	PaymentCash     PaymentMode = "ESPECES"
	PaymentCard     PaymentMode = "CARTE"
	PaymentCheque   PaymentMode = "CHEQUE"
	PaymentTransfer PaymentMode = "VIREMENT"
)

// AllPaymentModes lists payment modes in display order.
var AllPaymentModes = []PaymentMode{PaymentCash, PaymentCard, PaymentCheque, PaymentTransfer}

// ValidPaymentMode reports whether m is a known payment mode.
func ValidPaymentMode(m PaymentMode) bool {
	for _, known := range AllPaymentModes {
		if m == known {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known sale status.
func ValidStatus(s SaleStatus) bool {
	return s == StatusInProgress || s == StatusCompleted || s == StatusCancelled
}

// Sale is a ticket in the sales ledger. FinalAmount is always derived,
// total minus discount, never set directly.
type Sale struct {
	ID          int64
	Number      string
	ClientName  string
	ClientEmail string
	ClientPhone string
	Status      SaleStatus
	SoldAt      time.Time
	TotalAmount float64
	Discount    float64
	FinalAmount float64
	PaymentMode PaymentMode
	Comment     string
	SellerID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// SaleLine is one product position on a sale. The unit price is frozen
// at line creation.
type SaleLine struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int
	UnitPrice float64
	Amount    float64
	CreatedAt time.Time
	DeletedAt *time.Time
}

// SaleRow is a listing row joined with the seller name.
type SaleRow struct {
	Sale
	SellerName string
}

// LineRow is a line joined with its product name.
type LineRow struct {
	SaleLine
	ProductName string
}

// SaleDetail bundles a sale with its active lines.
type SaleDetail struct {
	SaleRow
	Lines []LineRow
}

// ListFilter narrows sale listings.
type ListFilter struct {
	Status SaleStatus
	From   time.Time
	To     time.Time
}

// NewSaleNumber builds a unique ticket number. The timestamp keeps
// numbers sortable, the random suffix avoids collisions within the
// same second.
func NewSaleNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "V" + now.Format("20060102150405") + "-" + strings.ToUpper(suffix)
}
