package domain

// Dialect is one of the query languages the explorer translates user text into
type Dialect string

const (
	DialectFullText   Dialect = "full-text"
	DialectStructural Dialect = "structural"
	DialectRelational Dialect = "relational"
)

// SearchType is the dialect selector accepted by the unified search entry point
type SearchType string

const (
	SearchTypeStructural SearchType = "structural"
	SearchTypeRelational SearchType = "relational"
)

// Valid reports whether t is one of the accepted search types
func (t SearchType) Valid() bool {
	return t == SearchTypeStructural || t == SearchTypeRelational
}

// Page selects a window of search results
type Page struct {
	Offset int64 `json:"offset"`
	Size   int   `json:"size"`
}

// PageAt builds the page with the given zero-based index and size
func PageAt(index, size int) *Page {
	if index < 0 {
		index = 0
	}
	return &Page{Offset: int64(index) * int64(size), Size: size}
}

// SearchResult holds one page of results. TotalCount stays zero when no page was requested.
type SearchResult[T any] struct {
	Content    []T   `json:"content"`
	Page       *Page `json:"page,omitempty"`
	TotalCount int64 `json:"totalCount"`
}
