package session

import "errors"

// Validation constants shared by both Store implementations.
const (
	// DefaultTitle is used when CreateSession receives an empty title.
	DefaultTitle = "New Chat"

	// MaxTitleLength is the maximum accepted title length in bytes.
	MaxTitleLength = 100

	// DefaultPageSize is used when ListSessions receives a non-positive
	// page size.
	DefaultPageSize = 20

	// MaxPageSize caps the page size accepted by ListSessions.
	MaxPageSize = 50
)

// Sentinel errors for store operations. Part of the Store contract;
// check with errors.Is().
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrTitleTooLong indicates a title exceeding MaxTitleLength.
	ErrTitleTooLong = errors.New("session title too long")

	// ErrInvalidRole indicates a message role outside the {user, assistant} set.
	ErrInvalidRole = errors.New("invalid message role")
)

// normalizeTitle applies the default and validates length.
func normalizeTitle(title string) (string, error) {
	if title == "" {
		return DefaultTitle, nil
	}
	if len(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// normalizePage clamps pagination parameters to valid ranges.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// buildPage computes pagination metadata for a result set.
// TotalPages is ceil(totalCount / pageSize).
func buildPage(page, pageSize, totalCount int) Page {
	totalPages := (totalCount + pageSize - 1) / pageSize
	return Page{
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1 && totalCount > 0,
	}
}
