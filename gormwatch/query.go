package gormwatch

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/watchpager"
	"github.com/Alp4ka/watchpager/keyset"
)

// Page is one keyset page of rows.
type Page[T any] struct {
	Items []T
	Info  watchpager.ForwardPageInfo
}

// PageQuery selects one keyset page of T. Scopes narrow the base statement,
// e.g. to a table and a filter.
type PageQuery[T any] struct {
	name    string
	query   *keyset.Query
	getters keyset.Getters[T]
	scopes  []func(*gorm.DB) *gorm.DB
}

func NewPageQuery[T any](
	name string,
	query *keyset.Query,
	getters keyset.Getters[T],
	scopes ...func(*gorm.DB) *gorm.DB,
) PageQuery[T] {
	return PageQuery[T]{
		name:    name,
		query:   query,
		getters: getters,
		scopes:  scopes,
	}
}

// Key - implements Query.
func (q PageQuery[T]) Key() string {
	return fmt.Sprintf("%s?first=%d&after=%s", q.name, q.query.Limit(), q.query.Cursor().String())
}

// Run - implements Query.
func (q PageQuery[T]) Run(ctx context.Context, db *gorm.DB) (Page[T], error) {
	stmt, err := q.query.Apply(db.WithContext(ctx).Scopes(q.scopes...))
	if err != nil {
		return Page[T]{}, fmt.Errorf("cannot apply page query: %w", err)
	}

	var rows []T
	if err = stmt.Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("cannot select page: %w", err)
	}

	rows, next, err := keyset.NextCursor(q.query, rows, q.getters)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{
		Items: rows,
		Info: watchpager.ForwardPageInfo{
			First:   q.query.Limit(),
			After:   next.String(),
			HasNext: next != nil,
		},
	}, nil
}

// next is the query of the page that starts after the given cursor token.
func (q PageQuery[T]) next(after string) (PageQuery[T], error) {
	cursor, err := keyset.DecodeCursor(after)
	if err != nil {
		return PageQuery[T]{}, err
	}

	return PageQuery[T]{
		name:    q.name,
		query:   q.query.After(cursor),
		getters: q.getters,
		scopes:  q.scopes,
	}, nil
}

// ExtractPageInfo returns the Info of whichever page d holds.
func ExtractPageInfo[T any](d watchpager.PageData[Page[T], Page[T]]) watchpager.ForwardPageInfo {
	if p, ok := d.AsInitial(); ok {
		return p.Info
	}

	p, _ := d.AsPaginated()

	return p.Info
}

// NewPager builds a forward pager over first. Each page's Info carries the
// end cursor the following page starts after.
func NewPager[T any](
	c *Client[Page[T]],
	first PageQuery[T],
	opts ...watchpager.Option,
) *watchpager.Pager[Query[Page[T]], Query[Page[T]], Page[T], Page[T], watchpager.ForwardPageInfo] {
	watcher := watchpager.WatcherFunc[Query[Page[T]], Page[T]](c.Watch)

	return watchpager.NewForward[Query[Page[T]], Query[Page[T]], Page[T], Page[T]](
		watcher,
		Query[Page[T]](first),
		watcher,
		ExtractPageInfo[T],
		func(info watchpager.ForwardPageInfo) (Query[Page[T]], bool) {
			return nextQuery(c, first, info)
		},
		opts...,
	)
}

func nextQuery[T any](c *Client[Page[T]], first PageQuery[T], info watchpager.ForwardPageInfo) (Query[Page[T]], bool) {
	if info.After == "" {
		return nil, false
	}

	q, err := first.next(info.After)
	if err != nil {
		c.logger.Error().Err(err).Str("after", info.After).Msg("cannot decode next page cursor")
		return nil, false
	}

	return q, true
}
