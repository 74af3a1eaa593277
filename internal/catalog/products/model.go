package products

import "time"

// Unit is the sale unit of a product.
type Unit string

const (
	UnitPiece  Unit = "PIECE"
	UnitKg     Unit = "KG"
	UnitLitre  Unit = "L"
	UnitMetre  Unit = "M"
	UnitM2     Unit = "M2"
	UnitM3     Unit = "M3"
	UnitBoite  Unit = "BOITE"
	UnitPaquet Unit = "PAQUET"
)

// AllUnits lists units in display order.
var AllUnits = []Unit{UnitPiece, UnitKg, UnitLitre, UnitMetre, UnitM2, UnitM3, UnitBoite, UnitPaquet}

// DefaultAlertThreshold applies when a product is created without one.
const DefaultAlertThreshold = 10

// Product is a catalog item.
type Product struct {
	ID             int64
	Code           string
	Name           string
	Description    string
	CategoryID     *int64
	SupplierID     *int64
	Unit           Unit
	PurchasePrice  float64
	SalePrice      float64
	AlertThreshold int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Margin is the per-unit gross margin.
func (p Product) Margin() float64 {
	return p.SalePrice - p.PurchasePrice
}

// MarginPercent is the margin relative to the purchase price, zero when
// the purchase price is not set.
func (p Product) MarginPercent() float64 {
	if p.PurchasePrice <= 0 {
		return 0
	}
	return p.Margin() / p.PurchasePrice * 100
}

// ProductRow is a listing row joined with its category, supplier and
// derived stock level.
type ProductRow struct {
	Product
	CategoryName   string
	SupplierName   string
	CurrentStock   int
	BelowThreshold bool
}
