// Package pagination holds the offset/limit paging rules shared by the
// list endpoints (imported rows, mapped rows).
package pagination

const (
	// DefaultLimit is the page size applied when the client sends none.
	DefaultLimit = 25
	// MaxLimit caps the page size of any list endpoint. Imported-row pages
	// can run to thousands of rows; clients page through them.
	MaxLimit = 100
)

// Window is one page of a list result.
type Window struct {
	Offset int
	Limit  int
}

// NormalizeLimit clamps limit into [1, MaxLimit], substituting DefaultLimit
// for missing or non-positive values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizeOffset floors negative offsets to zero.
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// NewWindow normalizes raw query values into a usable window.
func NewWindow(offset, limit int) Window {
	return Window{
		Offset: NormalizeOffset(offset),
		Limit:  NormalizeLimit(limit),
	}
}
