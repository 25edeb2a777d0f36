// Package pagination slices lists into fixed-size, 1-based pages.
package pagination

// TotalPages returns the number of pages needed for n items.
// It is never less than 1, so an empty list still has a single (empty) page.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the items on the 1-based page and the total page count.
// A page beyond the last one yields an empty slice; it never wraps around.
// The returned slice shares its backing array with items.
func Paginate[T any](items []T, page, pageSize int) ([]T, int) {
	total := TotalPages(len(items), pageSize)
	if pageSize <= 0 || page < 1 || page > total {
		return items[:0:0], total
	}

	start := (page - 1) * pageSize
	if start >= len(items) {
		return items[:0:0], total
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end], total
}

// Clamp bounds page to [1, TotalPages(n, pageSize)].
func Clamp(page, n, pageSize int) int {
	if page < 1 {
		return 1
	}
	if total := TotalPages(n, pageSize); page > total {
		return total
	}
	return page
}
