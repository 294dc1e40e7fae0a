package service

import "socialfeed/internal/models"

// Pagination normalises page-number requests.
type Pagination struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPagination matches the FEED_DEFAULT_PAGE_SIZE / FEED_MAX_PAGE_SIZE defaults.
var DefaultPagination = Pagination{DefaultSize: 10, MaxSize: 100}

// Request validates page and clamps size. A page below 1 is an InvalidOperation;
// a non-positive size falls back to the default.
func (p Pagination) Request(page, size int) (models.PageRequest, error) {
	if page < 1 {
		return models.PageRequest{}, models.NewInvalidOperationError("Page number must be a positive integer")
	}
	def, maxSize := p.DefaultSize, p.MaxSize
	if def <= 0 {
		def = DefaultPagination.DefaultSize
	}
	if maxSize <= 0 {
		maxSize = DefaultPagination.MaxSize
	}
	if size <= 0 {
		size = def
	}
	if size > maxSize {
		size = maxSize
	}
	return models.PageRequest{Page: page, PageSize: size}, nil
}

// pageOf assembles a page and rejects pages past the last one. Page 1 is always valid.
func pageOf[T any](items []T, total int64, req models.PageRequest) (models.Page[T], error) {
	p := models.NewPage(items, total, req)
	if req.Page > 1 && req.Page > p.TotalPages {
		return models.Page[T]{}, models.NewInvalidPageError()
	}
	return p, nil
}
