// Package pagination implements offset pagination shared by the post, comment
// and tag listings.
package pagination

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	// MaxLimit caps any requested page size.
	MaxLimit = 100
)

// Params is a normalized, one-based page request.
type Params struct {
	Page  int
	Limit int
}

// NewParams normalizes page and limit. A page below 1 becomes 1, a limit below
// 1 falls back to defaultLimit and every limit is capped at MaxLimit.
func NewParams(page, limit, defaultLimit int) Params {
	if page < 1 {
		page = 1
	}
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// ParseParams normalizes raw query-string values. Unparseable input is treated
// as absent.
func ParseParams(pageRaw, limitRaw string, defaultLimit int) Params {
	page, err := strconv.Atoi(strings.TrimSpace(pageRaw))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitRaw))
	if err != nil {
		limit = 0
	}
	return NewParams(page, limit, defaultLimit)
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// NewMeta computes page metadata. A page past the end is reported as-is, it
// is never clamped.
func NewMeta(page, limit int, total int64) Meta {
	totalPages := 0
	if limit > 0 && total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Meta{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

// Page is one page of records plus its metadata.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// Empty returns a page with no records and zeroed totals.
func Empty[T any](p Params) *Page[T] {
	return &Page[T]{Data: make([]T, 0), Pagination: NewMeta(p.Page, p.Limit, 0)}
}

// Paginate counts the rows matched by base and fetches the requested page.
// base carries the model and filter predicate only; fetch adds ordering,
// selects and preloads to the page query. Both queries start from independent
// sessions of base so they see the same predicate.
func Paginate[T any](ctx context.Context, base *gorm.DB, p Params, fetch func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	var total int64
	if err := base.Session(&gorm.Session{}).WithContext(ctx).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count page: %w", err)
	}

	data := make([]T, 0, p.Limit)
	if total > int64(p.Offset()) {
		q := base.Session(&gorm.Session{}).WithContext(ctx)
		if fetch != nil {
			q = fetch(q)
		}
		if err := q.Offset(p.Offset()).Limit(p.Limit).Find(&data).Error; err != nil {
			return nil, fmt.Errorf("fetch page: %w", err)
		}
	}

	return &Page[T]{Data: data, Pagination: NewMeta(p.Page, p.Limit, total)}, nil
}
