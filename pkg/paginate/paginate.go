// Package paginate walks cursor-paginated listings.
//
// Pages are fetched strictly in sequence since each cursor is only known
// once the previous page has been parsed. A walk ends when a page carries no
// cursor or the page limit is reached. Data already fetched is never thrown
// away: a failure after the first successful page ends the walk with the
// partial items and a warning.
package paginate

import (
	"context"
	"fmt"
	"iter"

	"threadscli/pkg/models"
)

// FetchFunc fetches the page after cursor ("" for the first page)
type FetchFunc[T any] func(ctx context.Context, cursor string) (models.Page[T], error)

// Result is the outcome of a walk
type Result[T any] struct {
	Items []T
	// Cursor is the token for the page after the last one fetched, "" if the listing ended
	Cursor string
	Pages  int
	// Warning describes a failure that cut the walk short after some items were collected
	Warning string
	// Err is the failure behind Warning
	Err error
}

// Walk fetches up to maxPages pages (values below 1 mean 1). It returns an
// error only when nothing was collected.
func Walk[T any](ctx context.Context, fetch FetchFunc[T], maxPages int) (Result[T], error) {
	var res Result[T]
	for page, err := range Pages(ctx, fetch, maxPages) {
		if err != nil {
			if len(res.Items) == 0 {
				return Result[T]{}, err
			}
			res.Err = err
			res.Warning = fmt.Sprintf("stopped after %d page(s): %v", res.Pages, err)
			return res, nil
		}
		res.Pages++
		res.Items = append(res.Items, page.Items...)
		res.Cursor = page.Cursor
	}
	if res.Items == nil {
		res.Items = []T{}
	}
	return res, nil
}

// Pages returns a lazy sequence of pages with the same bounds as Walk. The
// sequence ends after the first error it yields. Each range over it starts
// again from the first page.
func Pages[T any](ctx context.Context, fetch FetchFunc[T], maxPages int) iter.Seq2[models.Page[T], error] {
	if maxPages < 1 {
		maxPages = 1
	}
	return func(yield func(models.Page[T], error) bool) {
		cursor := ""
		for n := 0; n < maxPages; n++ {
			if err := ctx.Err(); err != nil {
				yield(models.Page[T]{}, err)
				return
			}
			page, err := fetch(ctx, cursor)
			if err != nil {
				yield(models.Page[T]{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if !page.HasMore() {
				return
			}
			cursor = page.Cursor
		}
	}
}
