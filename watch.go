package watchpager

import "fmt"

// CachePolicy tells a Watcher where the result of a watched query may come
// from.
type CachePolicy int

const (
	// ReturnCacheDataElseFetch returns cached data if present, otherwise
	// fetches from the network.
	ReturnCacheDataElseFetch CachePolicy = iota
	// FetchIgnoringCacheData always fetches from the network and writes the
	// result to the cache.
	FetchIgnoringCacheData
	// FetchIgnoringCacheCompletely always fetches from the network and never
	// touches the cache.
	FetchIgnoringCacheCompletely
	// ReturnCacheDataDontFetch returns cached data only. A cache miss is
	// delivered as an event without data.
	ReturnCacheDataDontFetch
	// ReturnCacheDataAndFetch returns cached data if present and then
	// fetches from the network.
	ReturnCacheDataAndFetch
)

const (
	// DefaultFetchPolicy is the policy used by Refetch for the first page.
	DefaultFetchPolicy = ReturnCacheDataAndFetch
	// DefaultLoadMorePolicy is the policy callers usually want for LoadMore.
	DefaultLoadMorePolicy = FetchIgnoringCacheData
)

func (p CachePolicy) String() string {
	switch p {
	case ReturnCacheDataElseFetch:
		return "returnCacheDataElseFetch"
	case FetchIgnoringCacheData:
		return "fetchIgnoringCacheData"
	case FetchIgnoringCacheCompletely:
		return "fetchIgnoringCacheCompletely"
	case ReturnCacheDataDontFetch:
		return "returnCacheDataDontFetch"
	case ReturnCacheDataAndFetch:
		return "returnCacheDataAndFetch"
	default:
		return fmt.Sprintf("CachePolicy(%d)", int(p))
	}
}

// ReadsCache reports whether the policy may deliver cached data.
func (p CachePolicy) ReadsCache() bool {
	return p == ReturnCacheDataElseFetch || p == ReturnCacheDataDontFetch || p == ReturnCacheDataAndFetch
}

// DataSource is the provenance of a single watch event.
type DataSource int

const (
	FromCache DataSource = iota
	FromNetwork
)

func (s DataSource) String() string {
	if s == FromNetwork {
		return "network"
	}

	return "cache"
}

// Event is one delivery of a watched query. Exactly one of Err and Data is
// meaningful: when Err is nil, Data may still be nil (no data available).
type Event[D any] struct {
	Data   *D
	Source DataSource
	Err    error
}

// WatchHandle controls one live watch.
//
// IMPORTANT:
// Cancel must be idempotent, and no event may be delivered once it returns
// (except an event whose delivery had already started).
type WatchHandle interface {
	Refetch(policy CachePolicy)
	Cancel()
}

// Watcher starts watched queries. Each call to Watch creates an independent
// watch which delivers events to handler until it is cancelled.
type Watcher[Q any, D any] interface {
	Watch(query Q, policy CachePolicy, handler func(Event[D])) WatchHandle
}

// WatcherFunc adapts a plain function to the Watcher interface.
type WatcherFunc[Q any, D any] func(query Q, policy CachePolicy, handler func(Event[D])) WatchHandle

// Watch - implements Watcher.
func (f WatcherFunc[Q, D]) Watch(query Q, policy CachePolicy, handler func(Event[D])) WatchHandle {
	return f(query, policy, handler)
}
