package helpers

import (
	"github.com/luzatrade/findmiss-sub000/internal/constants"
)

// NormalizePage clamps page/limit to sane values: page starts at 1,
// limit defaults to constants.DefaultPageSize and never exceeds
// constants.MaxPageSize.
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}
	return page, limit
}

// TotalPages computes the page count for a total and limit.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}
