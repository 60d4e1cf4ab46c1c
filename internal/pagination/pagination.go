// Package pagination slices post listings into fixed-size, newest-first pages.
package pagination

import (
	"context"
	"strconv"

	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PageSize is the number of posts on every listing page.
const PageSize = 10

// PageParam is the query parameter carrying the 1-based page number.
const PageParam = "page"

// Page is one window of a listing.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
}

func (p *Page[T]) Len() int          { return len(p.Items) }
func (p *Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) NextNumber() int   { return p.Number + 1 }
func (p *Page[T]) PreviousNumber() int {
	return p.Number - 1
}

// NumPages is the number of pages needed for count items; an empty listing
// still has one (empty) page.
func NumPages(count int64, size int) int {
	if count <= 0 {
		return 1
	}
	return int((count + int64(size) - 1) / int64(size))
}

// Number resolves a requested page number against the listing size.
// Missing or malformed values give the first page, values past either end
// are clamped to the nearest existing page.
func Number(raw string, count int64, size int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	if last := NumPages(count, size); n > last {
		return last
	}
	return n
}

// Offset is the index of the first item on page number.
func Offset(number, size int) int {
	return (number - 1) * size
}

// PostSource is the part of the post store the helper reads from.
type PostSource interface {
	CountPosts(ctx context.Context, filter repositories.PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter repositories.PostFilter, offset, limit int) ([]models.Post, error)
}

// Posts builds the requested page of posts matching filter. The page number
// is read from the request's query string.
func Posts(c echo.Context, src PostSource, filter repositories.PostFilter) (*Page[models.Post], error) {
	ctx := c.Request().Context()
	count, err := src.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	number := Number(c.QueryParam(PageParam), count, PageSize)
	posts, err := src.ListPosts(ctx, filter, Offset(number, PageSize), PageSize)
	if err != nil {
		return nil, err
	}
	return &Page[models.Post]{
		Items:    posts,
		Number:   number,
		NumPages: NumPages(count, PageSize),
		Count:    count,
	}, nil
}
