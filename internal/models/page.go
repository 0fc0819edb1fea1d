package models

const DefaultPageSize = 10

// Page is an offset/limit window over an ordered result.
type Page struct {
	Offset int
	Limit  int
}

// NewPage converts an item offset into a page-aligned window: the page
// index is from/size and the window starts at index*size, so an offset
// that is not a multiple of size rounds down to the page boundary.
// Callers validate first: from >= 0 and size >= 1.
func NewPage(from, size int) Page {
	return Page{Offset: (from / size) * size, Limit: size}
}
