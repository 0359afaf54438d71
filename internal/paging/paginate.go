package paging

import (
	"slices"

	"waste-console/internal/apperr"
)

// Options are the page sizes offered by the UI.
var Options = []int{10, 20, 50, 100}

const DefaultPerPage = 10

func ValidPerPage(n int) bool {
	return slices.Contains(Options, n)
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
}

// TotalPages is ceil(count/perPage), at least 1.
func TotalPages(count, perPage int) int {
	if perPage <= 0 || count <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// Paginate slices all. It never clamps: a page outside [1, TotalPages] yields no
// items, telling the caller to fix its navigation state. all is not copied; Items
// shares its backing array.
func Paginate[T any](all []T, page, perPage int) (Page[T], error) {
	if perPage <= 0 {
		return Page[T]{}, apperr.Validation("per_page", "per_page must be positive, got %d", perPage)
	}
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PerPage:    perPage,
		TotalCount: len(all),
		TotalPages: TotalPages(len(all), perPage),
	}
	if page < 1 || page > p.TotalPages {
		return p, nil
	}
	start := (page - 1) * perPage
	if start >= len(all) {
		return p, nil
	}
	end := min(start+perPage, len(all))
	p.Items = all[start:end:end]
	return p, nil
}

// Clamp moves page into [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return max(1, min(page, totalPages))
}
