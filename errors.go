package watchpager

import "errors"

var (
	// ErrNoPageInfo is reported when LoadMore is called before the first page
	// has been delivered from the network.
	ErrNoPageInfo = errors.New("no page info: first page was not fetched yet")

	// ErrIncomparablePageInfo is reported when an extracted PageInfo holds a
	// dynamic value that cannot be compared, e.g. a slice behind an interface.
	ErrIncomparablePageInfo = errors.New("page info is not comparable")

	// ErrNilPageInfo is reported when the extraction function returns a nil
	// interface value.
	ErrNilPageInfo = errors.New("page info is nil")
)
