package ports

import "math"

// Page is a 1-based page request. Values below 1 select the first page.
type Page struct {
	Number int
	Size   int
}

// Skip returns the number of records preceding the page. Pages too far out
// to count saturate at math.MaxInt64, which reads back as an empty page.
func (p Page) Skip() int64 {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	before, size := int64(p.Number-1), int64(p.Size)
	if before > math.MaxInt64/size {
		return math.MaxInt64
	}
	return before * size
}
