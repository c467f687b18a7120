package service

import (
	"strings"

	"github.com/go-faster/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 250
)

// ErrInvalidQuery is returned when a list filter names an unknown value.
var ErrInvalidQuery = errors.New("invalid query")

// ListQuery holds the search, filter and pagination options of list views.
type ListQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Tag      string `form:"tag"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func (q ListQuery) bounds() (page, size int) {
	page, size = q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// matches reports whether any field contains the search term, case-insensitively.
func (q ListQuery) matches(fields ...string) bool {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// allStatuses reports whether the status filter selects everything.
func (q ListQuery) allStatuses() bool {
	return q.Status == "" || strings.EqualFold(q.Status, "All")
}

// Page is one page of a filtered list.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Pages    int `json:"pages"`
}

func paginate[T any](items []T, q ListQuery) Page[T] {
	page, size := q.bounds()
	total := len(items)
	pages := (total + size - 1) / size

	// pages past the end are empty; page is only multiplied once it is known to be in range
	start := total
	if page <= pages {
		start = (page - 1) * size
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{
		Items:    out,
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
