package pagination

import (
	"strings"
)

const (
	// DefaultPageSize is the page size used when none is provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows a list query can request.
	MaxPageSize = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
	Search   string
}

// Normalize clamps page and size and trims the search term.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Like returns the search term wrapped for a case-insensitive LIKE match.
func (p Params) Like() string {
	return "%" + strings.ToLower(strings.TrimSpace(p.Search)) + "%"
}

// TotalPages returns how many pages total rows span.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Page is a single page of list results.
type Page[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

// NewPage assembles a page from the rows and the unpaged total.
func NewPage[T any](items []T, params Params, total int64) Page[T] {
	n := params.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		CurrentPage: n.Page,
		PageSize:    n.PageSize,
		TotalPages:  TotalPages(total, n.PageSize),
		TotalItems:  total,
	}
}

// Map converts the items of a page while keeping its counters.
func Map[T, U any](page Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, fn(item))
	}
	return Page[U]{
		Items:       out,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
	}
}
