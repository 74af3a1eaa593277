package stock

import "time"

// MovementKind enumerates supported stock movements.
type MovementKind string

const (
	// KindIn represents an inbound movement.
	KindIn MovementKind = "IN"
	// KindOut represents an outbound movement.
	KindOut MovementKind = "OUT"
	// KindAdjustment traces a correction without touching the stock level.
	KindAdjustment MovementKind = "ADJUSTMENT"
	// KindReturn traces a return without touching the stock level.
	KindReturn MovementKind = "RETURN"
)

// MovementReason qualifies why a movement happened.
type MovementReason string

const (
	ReasonPurchase       MovementReason = "PURCHASE"
	ReasonSale           MovementReason = "SALE"
	ReasonInventoryAdj   MovementReason = "INVENTORY_ADJUSTMENT"
	ReasonCustomerReturn MovementReason = "CUSTOMER_RETURN"
	ReasonSupplierReturn MovementReason = "SUPPLIER_RETURN"
	ReasonBreakage       MovementReason = "BREAKAGE"
	ReasonLost           MovementReason = "LOST"
	ReasonTheft          MovementReason = "THEFT"
	ReasonDonation       MovementReason = "DONATION"
)

// AllKinds lists movement kinds in display order.
var AllKinds = []MovementKind{KindIn, KindOut, KindAdjustment, KindReturn}

// AllReasons lists movement reasons in display order.
var AllReasons = []MovementReason{
	ReasonPurchase, ReasonSale, ReasonInventoryAdj,
	ReasonCustomerReturn, ReasonSupplierReturn,
	ReasonBreakage, ReasonLost, ReasonTheft, ReasonDonation,
}

// ValidKind reports whether k is a known movement kind.
func ValidKind(k MovementKind) bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ValidReason reports whether r is a known movement reason.
func ValidReason(r MovementReason) bool {
	for _, known := range AllReasons {
		if r == known {
			return true
		}
	}
	return false
}

// Movement is one entry in the stock ledger. The ledger is append-only,
// the stock level is always derived from active movements.
type Movement struct {
	ID         int64
	ProductID  int64
	Kind       MovementKind
	Reason     MovementReason
	Quantity   int
	UnitPrice  float64
	SupplierID *int64
	Client     string
	Reference  string
	Comment    string
	OccurredAt time.Time
	CreatedAt  time.Time
	DeletedAt  *time.Time
}

// SignedQuantity is the movement's contribution to the stock level.
// IN adds, OUT subtracts. ADJUSTMENT and RETURN are kept as traces and
// contribute nothing.
func (m Movement) SignedQuantity() int {
	switch m.Kind {
	case KindIn:
		return m.Quantity
	case KindOut:
		return -m.Quantity
	default:
		return 0
	}
}

// Value is the monetary value of the movement, zero when no unit price
// was recorded.
func (m Movement) Value() float64 {
	return m.UnitPrice * float64(m.Quantity)
}

// MovementRow is a listing row joined with product and supplier names.
type MovementRow struct {
	Movement
	ProductCode  string
	ProductName  string
	SupplierName string
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID int64
	Kind      MovementKind
	Reason    MovementReason
	From      time.Time
	To        time.Time
}
