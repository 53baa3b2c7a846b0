package watchpager

// UpdateSource tells whether a merged Output was produced by a cache read or
// by a network fetch.
type UpdateSource int

const (
	SourceCache UpdateSource = iota
	SourceFetch
)

func (s UpdateSource) String() string {
	if s == SourceFetch {
		return "fetch"
	}

	return "cache"
}

// PageData is the value passed to the page info extraction function: either
// the first page or one of the following pages.
type PageData[ID, PD any] struct {
	initial   ID
	paginated PD
	isInitial bool
}

// InitialPage wraps first page data.
func InitialPage[ID, PD any](data ID) PageData[ID, PD] {
	return PageData[ID, PD]{initial: data, isInitial: true}
}

// NextPage wraps next page data.
func NextPage[ID, PD any](data PD) PageData[ID, PD] {
	return PageData[ID, PD]{paginated: data}
}

// IsInitial reports whether the value holds first page data.
func (d PageData[ID, PD]) IsInitial() bool {
	return d.isInitial
}

// AsInitial returns first page data, if that is what d holds.
func (d PageData[ID, PD]) AsInitial() (ID, bool) {
	return d.initial, d.isInitial
}

// AsPaginated returns next page data, if that is what d holds.
func (d PageData[ID, PD]) AsPaginated() (PD, bool) {
	return d.paginated, !d.isInitial
}

// Output is the merged paginated result. Pages are ordered the way they were
// loaded. Every Output is a snapshot: Pages is never shared with the pager.
type Output[ID, PD any] struct {
	Initial ID
	Pages   []PD
	Source  UpdateSource
}

// Result is a single delivery to a subscriber.
type Result[ID, PD any] struct {
	Output Output[ID, PD]
	Err    error
}

// ExtractFunc returns the pagination info of a page. It runs outside the
// pager lock and may call back into the pager. A nil interface result is
// reported as ErrNilPageInfo.
type ExtractFunc[ID, PD any, P PageInfo] func(PageData[ID, PD]) P

// NextPageFunc resolves the query for the page following info. Returning
// false means there is no such query. Like ExtractFunc it runs outside the
// pager lock.
type NextPageFunc[P PageInfo, PQ any] func(info P) (PQ, bool)
