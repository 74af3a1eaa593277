package alerting

// NoSupplier is the display value for products without a principal
// supplier.
const NoSupplier = "Non défini"

// Alert flags a product at or below its alert threshold.
type Alert struct {
	ProductID    int64
	ProductCode  string
	ProductName  string
	CurrentStock int
	Threshold    int
	SupplierName string
}
