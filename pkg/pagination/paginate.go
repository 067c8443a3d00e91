package pagination

import (
	"errors"
	"fmt"
)

// ErrInvalidPageSize is returned when a page size is zero or negative.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Paginate splits items into consecutive chunks of pageSize.
// The last chunk may be shorter. An empty input yields zero pages.
func Paginate[T any](items []T, pageSize int) ([][]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidPageSize, pageSize)
	}

	pages := make([][]T, 0, (len(items)+pageSize-1)/pageSize)
	for start := 0; start < len(items); start += pageSize {
		end := min(start+pageSize, len(items))
		pages = append(pages, items[start:end:end])
	}
	return pages, nil
}
