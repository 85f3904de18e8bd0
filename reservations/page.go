package reservations

import "math"

const (
	// DefaultPageSize is used when a PageRequest does not specify a size.
	DefaultPageSize = 10

	// MaxPageSize caps the number of records returned by one list call.
	MaxPageSize = 100
)

// PageRequest selects one page of a listing sorted by id ascending. Number is zero-based.
type PageRequest struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// DefaultPageRequest returns the first page with the default size.
func DefaultPageRequest() PageRequest {
	return PageRequest{Number: 0, Size: DefaultPageSize}
}

// BuildPageRequest creates a validated PageRequest. A size of 0 selects DefaultPageSize.
func BuildPageRequest(number, size int) (PageRequest, error) {
	if size == 0 {
		size = DefaultPageSize
	}

	if number < 0 || size < 1 || size > MaxPageSize {
		return PageRequest{}, ErrInvalidPageRequest
	}

	// the offset must stay representable
	if number > math.MaxInt/size {
		return PageRequest{}, ErrInvalidPageRequest
	}

	return PageRequest{Number: number, Size: size}, nil
}

// Offset returns the number of records to skip.
func (p PageRequest) Offset() int {
	return p.Number * p.Size
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	Size       int `json:"size"`
	TotalItems int `json:"totalItems"`
}

// TotalPages returns the number of pages needed to list TotalItems records.
func (p Page[T]) TotalPages() int {
	if p.Size < 1 {
		return 0
	}

	return (p.TotalItems + p.Size - 1) / p.Size
}

// BuildPage slices a complete, already sorted listing into the requested page.
func BuildPage[T any](all []T, request PageRequest) Page[T] {
	page := Page[T]{
		Items:      make([]T, 0),
		Number:     request.Number,
		Size:       request.Size,
		TotalItems: len(all),
	}

	start := request.Offset()
	if start < 0 || start >= len(all) {
		return page
	}

	end := min(start+request.Size, len(all))
	page.Items = append(page.Items, all[start:end]...)

	return page
}
