// Package pagination pages lists the storefront receives in full from a
// backend.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 24
	MaxPerPage     = 96
)

// Params is a 1-based page request.
type Params struct {
	Page    int
	PerPage int
}

// FromQuery reads page and per_page. Missing or malformed values fall back
// to the defaults; per_page above MaxPerPage is clamped.
func FromQuery(q url.Values) Params {
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}
	return p
}

// Page is one page of a list together with what a client needs to ask for
// the next one.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Slice cuts page p out of all, keeping order. A page past the end is empty,
// never nil.
func Slice[T any](all []T, p Params) Page[T] {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	total := len(all)
	totalPages := (total + p.PerPage - 1) / p.PerPage

	start := min((p.Page-1)*p.PerPage, total)
	end := min(start+p.PerPage, total)
	items := make([]T, end-start)
	copy(items, all[start:end])

	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}
