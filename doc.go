// Package watchpager merges watched pages of a paginated query into one
// live result.
//
// # Overview
//
// A Pager owns one watch for the first page and one watch per page loaded
// with LoadMore. Every watch may deliver any number of events, from the
// cache or from the network, and the Pager republishes the merged Output
// to its subscriber whenever one of them changes.
//
// # Key concepts
//   - Watcher: the query mechanism. It starts a watch and returns a
//     WatchHandle that can be refetched with a CachePolicy or cancelled.
//   - PageInfo: caller-defined pagination state, extracted from every page
//     with an ExtractFunc. Pages are keyed by their PageInfo, so a page
//     updated from the cache replaces its previous version in place.
//   - Load order: a page takes its position when it first arrives from the
//     network. Cache deliveries never add positions.
//
// The gormwatch subpackage provides a Watcher over GORM and the keyset
// subpackage provides the cursor pagination it runs.
package watchpager
