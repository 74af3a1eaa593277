package reports

import "time"

// TopProduct is one entry of the daily best-sellers ranking.
type TopProduct struct {
	ProductName string
	Quantity    int
	Amount      float64
}

// DailyReport aggregates one day of activity. Revenue and SalesCount
// come from the stock ledger (OUT movements with reason SALE), the
// Completed* fields restate the same day from the sales ledger so the
// two can be compared.
type DailyReport struct {
	Day time.Time

	StockIn     int
	StockOut    int
	Adjustments int
	Returns     int

	Revenue    float64
	SalesCount int

	CompletedCount   int
	CompletedRevenue float64
	Discounts        float64

	AlertCount  int
	TopProducts []TopProduct
}
