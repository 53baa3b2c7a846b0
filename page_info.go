package watchpager

import (
	"fmt"
	"reflect"
)

// PageInfo is the caller-defined pagination state extracted from every page.
// The pager uses PageInfo values as keys, so they must be comparable.
//
// IMPORTANT:
// An interface type also satisfies comparable. When P is an interface, the
// dynamic value is checked on every page and a non-comparable value is
// rejected with ErrIncomparablePageInfo.
type PageInfo interface {
	comparable
	CanLoadMore() bool
}

// ForwardPageInfo describes forward cursor pagination: the page size, the
// cursor to continue after and whether a next page exists.
type ForwardPageInfo struct {
	First   int
	After   string
	HasNext bool
}

// CanLoadMore - implements PageInfo.
func (f ForwardPageInfo) CanLoadMore() bool {
	return f.HasNext
}

// ReversePageInfo describes backward cursor pagination: the page size, the
// cursor to continue before and whether a previous page exists.
type ReversePageInfo struct {
	Last        int
	Before      string
	HasPrevious bool
}

// CanLoadMore - implements PageInfo.
func (r ReversePageInfo) CanLoadMore() bool {
	return r.HasPrevious
}

func isPageInfo[P PageInfo]() {}

var (
	_ = isPageInfo[ForwardPageInfo]
	_ = isPageInfo[ReversePageInfo]
)

// PageIdentity is the ordering token of one page. Two identities are equal
// when the wrapped PageInfo values are equal.
type PageIdentity[P PageInfo] struct {
	info P
}

// NewPageIdentity wraps info after making sure it can be used as a key.
// A nil interface value is rejected: its CanLoadMore cannot be called.
func NewPageIdentity[P PageInfo](info P) (PageIdentity[P], error) {
	v := reflect.ValueOf(any(info))
	if !v.IsValid() {
		return PageIdentity[P]{}, ErrNilPageInfo
	}
	if !v.Comparable() {
		return PageIdentity[P]{}, fmt.Errorf("%w: %T", ErrIncomparablePageInfo, info)
	}

	return PageIdentity[P]{info: info}, nil
}

// Info returns the wrapped value.
func (p PageIdentity[P]) Info() P {
	return p.info
}
