package utils

// Purchase listing uses limit/offset paging. Limits are clamped server-side
// so a caller can never request an unbounded page.

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// PaginationParams holds pagination request parameters
type PaginationParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Count  int   `json:"count"`
	Total  int64 `json:"total"`
}

// ClampPagination normalizes limit and offset: limit defaults to
// DefaultPageLimit, is capped at MaxPageLimit, and offset is never negative.
func ClampPagination(limit, offset int) PaginationParams {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}
}
