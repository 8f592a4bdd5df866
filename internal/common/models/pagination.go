package models

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is the 1-based pagination input shared by all list endpoints.
type PageRequest struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// PagedResult is the list response envelope.
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	PageNumber int   `json:"pageNumber"`
	PageSize   int   `json:"pageSize"`
}

func NewPagedResult[T any](items []T, total int64, page PageRequest) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
}

// NotDeleted is the composable soft-delete predicate ANDed into every
// default read. Deleted rows stay on disk; nothing reads them back unless
// a query opts in explicitly.
func NotDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

// Paginate applies the normalized page window as a gorm scope.
func Paginate(page PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Offset()).Limit(page.PageSize)
	}
}
