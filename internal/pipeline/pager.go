package pipeline

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// DefaultPageSize is requested when Options.PageSize is unset.
const DefaultPageSize = 100

// ErrSequenceConsumed is yielded when a page sequence is ranged a second time.
var ErrSequenceConsumed = errors.New(errors.ErrorTypeInternal, "page sequence already consumed")

// Options tune a pagination driver.
type Options struct {
	// PageSize requested per page (default 100)
	PageSize int
	// MaxPages stops after this many pages (0 = unlimited)
	MaxPages int
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

// Counted walks a page-numbered endpoint starting at page 1. It continues
// while the last page was non-empty and, when the response reports a page
// count, while the page number is below it. body must be a CountedPage or
// FilteredCountedPage.
func Counted[T any](ctx context.Context, f *Fetcher[T], body QueryBody, opts Options) iter.Seq2[[]T, error] {
	return paginate(ctx, f, body, opts, countedBody, func(page *Page[T]) bool {
		return page.PageCount <= 0 || page.PageNumber < page.PageCount
	})
}

// Open walks an endpoint that reports no totals, continuing strictly while
// the last page was non-empty. body must be a CursorPaging.
func Open[T any](ctx context.Context, f *Fetcher[T], body QueryBody, opts Options) iter.Seq2[[]T, error] {
	return paginate(ctx, f, body, opts, openBody, func(*Page[T]) bool { return true })
}

func countedBody(body QueryBody) bool {
	switch body.(type) {
	case CountedPage, FilteredCountedPage:
		return true
	}
	return false
}

func openBody(body QueryBody) bool {
	_, ok := body.(CursorPaging)
	return ok
}

// OneShot produces a sequence of at most one batch from a single call.
func OneShot[T any](ctx context.Context, fetch func(ctx context.Context) ([]T, error)) iter.Seq2[[]T, error] {
	var used atomic.Bool
	return func(yield func([]T, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(nil, ErrSequenceConsumed)
			return
		}
		items, err := fetch(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		if len(items) == 0 {
			return
		}
		yield(items, nil)
	}
}

// paginate fetches one page per consumer step. Empty pages end the sequence
// without being yielded; the first error is yielded and ends it.
func paginate[T any](ctx context.Context, f *Fetcher[T], body QueryBody, opts Options, accepts func(QueryBody) bool, more func(*Page[T]) bool) iter.Seq2[[]T, error] {
	var used atomic.Bool
	return func(yield func([]T, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(nil, ErrSequenceConsumed)
			return
		}
		if body == nil {
			yield(nil, errors.New(errors.ErrorTypeConfig, "nil query body"))
			return
		}
		if !accepts(body) {
			yield(nil, errors.Newf(errors.ErrorTypeConfig, "query body %T does not fit this pager", body))
			return
		}

		size := opts.pageSize()
		for number := 1; ; number++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := f.Fetch(ctx, body.withPage(size, number))
			if err != nil {
				yield(nil, err)
				return
			}
			if len(page.Items) == 0 {
				return
			}
			if !yield(page.Items, nil) {
				return
			}
			if opts.MaxPages > 0 && number >= opts.MaxPages {
				return
			}
			if !more(page) {
				return
			}
		}
	}
}
