package categories

import "time"

// DefaultColor is the badge colour used when none is chosen.
const DefaultColor = "#3B82F6"

// Category groups products. Color is a hex badge colour for listings.
type Category struct {
	ID          int64
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryRow is a listing row with its product count.
type CategoryRow struct {
	Category
	ProductCount int
}
