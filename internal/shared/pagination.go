package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the SQL offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PrevPage returns the previous page number, floored at 1.
func (p Pagination) PrevPage() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// NextPage returns the next page number.
func (p Pagination) NextPage() int {
	return p.Page + 1
}

// HasNext reports whether another page of results exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}
