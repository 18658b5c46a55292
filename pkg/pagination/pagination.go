package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Params is a page/limit pair parsed from query parameters.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// FromRequest reads page and limit from the query string, clamping to sane
// bounds.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, Limit: defaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset converts the page number into a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination envelope attached to list responses.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta derives the envelope from a total row count.
func NewMeta(p Params, total int64) Meta {
	pages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		pages++
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
