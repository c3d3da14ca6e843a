package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

//nolint:gochecknoglobals
var (
	ErrPageOverflow    = NewValidationError("PagedList.Overflow", "Items count cannot be greater than page size.")
	ErrInvalidPage     = NewValidationError("Pagination.Page", "Page must be greater than zero.")
	ErrInvalidPageSize = NewValidationError("Pagination.PageSize", "Page size must be greater than zero.")
)

// PaginationParams selects a 1-based page of a result set.
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// DefaultPagination returns page 1 with the default page size.
func DefaultPagination() PaginationParams {
	return PaginationParams{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Validate rejects non-positive page numbers and sizes, and pages whose
// offset does not fit in an int.
func (p PaginationParams) Validate() error {
	if p.Page < 1 {
		return ErrInvalidPage
	}

	if p.PageSize < 1 {
		return ErrInvalidPageSize
	}

	if p.Page-1 > math.MaxInt/p.PageSize {
		return fmt.Errorf("%w: offset of page %d overflows", ErrInvalidPage, p.Page)
	}

	return nil
}

// Offset returns the number of items preceding the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PagedList is one page of an ordered collection plus the metadata needed to
// navigate the rest of it.
type PagedList[T any] struct {
	Items       []T
	CurrentPage int
	PageSize    int
	TotalCount  int
}

// NewPagedList creates a page. More items than pageSize is a validation error.
func NewPagedList[T any](items []T, currentPage, pageSize, totalCount int) (PagedList[T], error) {
	if len(items) > pageSize {
		return PagedList[T]{}, fmt.Errorf("%w: %d items, page size %d", ErrPageOverflow, len(items), pageSize)
	}

	if items == nil {
		items = []T{}
	}

	return PagedList[T]{
		Items:       items,
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalCount:  totalCount,
	}, nil
}

// EmptyPagedList is the canonical "no result set".
func EmptyPagedList[T any]() PagedList[T] {
	return PagedList[T]{
		Items:       []T{},
		CurrentPage: 0,
		PageSize:    0,
		TotalCount:  0,
	}
}

// MapPagedList converts the items of a page and keeps its metadata.
func MapPagedList[T, K any](list PagedList[T], convert func(T) K) PagedList[K] {
	items := make([]K, len(list.Items))
	for i, item := range list.Items {
		items[i] = convert(item)
	}

	return PagedList[K]{
		Items:       items,
		CurrentPage: list.CurrentPage,
		PageSize:    list.PageSize,
		TotalCount:  list.TotalCount,
	}
}

// TotalPages is ceil(TotalCount / PageSize), or 0 for an empty page size.
func (l PagedList[T]) TotalPages() int {
	if l.PageSize <= 0 {
		return 0
	}

	return (l.TotalCount + l.PageSize - 1) / l.PageSize
}

func (l PagedList[T]) HasPrevious() bool {
	return l.CurrentPage > 1
}

func (l PagedList[T]) HasNext() bool {
	return l.CurrentPage < l.TotalPages()
}

type pagedListJSON[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// MarshalJSON includes the derived navigation fields.
func (l PagedList[T]) MarshalJSON() ([]byte, error) {
	items := l.Items
	if items == nil {
		items = []T{}
	}

	//nolint:wrapcheck
	return json.Marshal(pagedListJSON[T]{
		Items:       items,
		CurrentPage: l.CurrentPage,
		PageSize:    l.PageSize,
		TotalCount:  l.TotalCount,
		TotalPages:  l.TotalPages(),
		HasPrevious: l.HasPrevious(),
		HasNext:     l.HasNext(),
	})
}

// UnmarshalJSON reads the stored fields and ignores the derived ones.
func (l *PagedList[T]) UnmarshalJSON(data []byte) error {
	var raw pagedListJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal paged list: %w", err)
	}

	l.Items = raw.Items
	l.CurrentPage = raw.CurrentPage
	l.PageSize = raw.PageSize
	l.TotalCount = raw.TotalCount

	return nil
}
