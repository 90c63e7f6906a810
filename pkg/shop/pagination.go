package shop

import (
	"context"
	"errors"
	"fmt"
)

// Static errors for err113 compliance.
var (
	ErrNoMoreItems = errors.New("no more items")
)

// DefaultMaxPages guards FetchAllPages against a server that never reports
// its last page.
const DefaultMaxPages = 1000

// PageQuery is the criteria re-applied to every page fetched by a
// PaginationIterator; criteria set on a Resource last a single call.
type PageQuery struct {
	Limit   int
	Filters map[string]any
	Order   string
}

func (q *PageQuery) apply(resource *Resource, page int) error {
	err := q.set(resource, page)
	if err != nil {
		resource.criteria.Drain()
	}

	return err
}

func (q *PageQuery) set(resource *Resource, page int) error {
	if q != nil {
		if q.Limit != 0 {
			err := resource.Limit(q.Limit)
			if err != nil {
				return err
			}
		}

		if q.Filters != nil {
			err := resource.Filters(q.Filters)
			if err != nil {
				return err
			}
		}

		if q.Order != "" {
			err := resource.Order(q.Order)
			if err != nil {
				return err
			}
		}
	}

	return resource.Page(page)
}

// PaginationIterator walks a collection record by record, fetching pages on
// demand.
type PaginationIterator struct {
	ctx      context.Context //nolint:containedctx // iterator is bound to one traversal
	resource *Resource
	query    *PageQuery

	current   []*Record
	index     int
	nextPage  int
	pageCount int
	done      bool
	err       error
}

// NewPaginationIterator creates an iterator starting at page 1.
func NewPaginationIterator(ctx context.Context, resource *Resource, query *PageQuery) *PaginationIterator {
	return &PaginationIterator{
		ctx:      ctx,
		resource: resource,
		query:    query,
		nextPage: 1,
	}
}

// HasNext reports whether Next will return a record. It fetches the next page
// when the current one is exhausted; fetch errors surface from Next and Err.
func (it *PaginationIterator) HasNext() bool {
	if it.index < len(it.current) {
		return true
	}

	if it.done || it.err != nil {
		return it.err != nil
	}

	it.fetch()

	return it.index < len(it.current) || it.err != nil
}

// Next returns the next record.
func (it *PaginationIterator) Next() (*Record, error) {
	if !it.HasNext() {
		return nil, ErrNoMoreItems
	}

	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true

		return nil, err
	}

	record := it.current[it.index]
	it.index++

	return record, nil
}

// Err returns the last fetch error.
func (it *PaginationIterator) Err() error {
	return it.err
}

// PageCount returns the page count reported by the last fetched page.
func (it *PaginationIterator) PageCount() int {
	return it.pageCount
}

func (it *PaginationIterator) fetch() {
	err := it.query.apply(it.resource, it.nextPage)
	if err != nil {
		it.err = err

		return
	}

	list, err := it.resource.List(it.ctx)
	if err != nil {
		it.err = err

		return
	}

	it.current = list.Items
	it.index = 0
	it.pageCount = list.PageCount

	if len(list.Items) == 0 || !list.HasMeta() || it.nextPage >= list.PageCount {
		it.done = true
	}

	it.nextPage++
}

// PaginationOptions bounds FetchAllPages.
type PaginationOptions struct {
	// MaxPages stops the traversal after this many pages. 0 means DefaultMaxPages.
	MaxPages int
}

// FetchAllPages collects every record of a collection.
func FetchAllPages(ctx context.Context, resource *Resource, query *PageQuery, opts *PaginationOptions) ([]*Record, error) {
	maxPages := DefaultMaxPages
	if opts != nil && opts.MaxPages > 0 {
		maxPages = opts.MaxPages
	}

	var all []*Record

	for page := 1; page <= maxPages; page++ {
		err := query.apply(resource, page)
		if err != nil {
			return nil, err
		}

		list, err := resource.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching %s page %d: %w", resource.Name(), page, err)
		}

		all = append(all, list.Items...)

		if len(list.Items) == 0 || !list.HasMeta() || page >= list.PageCount {
			break
		}
	}

	return all, nil
}
