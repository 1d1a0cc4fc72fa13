package store

// PaginationParams contains offset pagination request parameters.
type PaginationParams struct {
	Page    int // 1-based page number
	PerPage int
}

// PaginatedResult contains one page of data and its position.
type PaginatedResult[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	NumPages int  `json:"numPages"`
	Total    int  `json:"total"`
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
}

// Resolve clamps the parameters against total rows and returns the page
// number together with the row offset. Out of range pages (including
// anything below 1) land on the last page; an empty result has one page.
func (p PaginationParams) Resolve(total int) (page, offset, numPages int) {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	numPages = (total + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}
	page = p.Page
	if page < 1 || page > numPages {
		page = numPages
	}
	return page, (page - 1) * perPage, numPages
}
