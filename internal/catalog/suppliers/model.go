package suppliers

import "time"

// Supplier is a vendor providing catalog products.
type Supplier struct {
	ID           int64
	Name         string
	ContactName  string
	Phone        string
	Email        string
	Address      string
	City         string
	PostalCode   string
	Country      string
	VATNumber    string
	PaymentTerms string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
