package watchpager

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// State is the lifecycle state of a Pager.
type State int

const (
	// StateIdle - there is no first page watch.
	StateIdle State = iota
	// StateLoading - the first page watch exists but delivered no data yet.
	StateLoading
	// StateActive - at least one first page result was received.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

type liveWatch struct {
	id        uint64
	handle    WatchHandle
	cancelled bool
	// pending holds refetches requested before the handle was attached.
	pending []CachePolicy
}

type subscription[ID, PD any] struct {
	fn func(Result[ID, PD])
}

func (s *subscription[ID, PD]) send(r Result[ID, PD]) {
	if s == nil || s.fn == nil {
		return
	}

	s.fn(r)
}

// Pager merges a watched first page and any number of watched next pages
// into a single paginated result, and republishes it whenever one of the
// pages changes.
//
// Type parameters:
//   - IQ, ID: first page query and data.
//   - PQ, PD: next page query and data.
//   - P: pagination info extracted from every page.
//
// All methods are safe for concurrent use and never block on the network.
// Results reach the subscriber one at a time and in the order the pager
// state changed, so the last delivered Output is always the current one.
type Pager[IQ, PQ, ID, PD any, P PageInfo] struct {
	initialWatcher Watcher[IQ, ID]
	initialQuery   IQ
	pageWatcher    Watcher[PQ, PD]
	extract        ExtractFunc[ID, PD, P]
	nextPage       NextPageFunc[P, PQ]
	logger         zerolog.Logger

	// done is closed by Close.
	done chan struct{}

	// mu guards everything below as one unit.
	mu          sync.Mutex
	closed      bool
	sub         *subscription[ID, PD]
	watchSeq    uint64
	generation  uint64
	firstWatch  *liveWatch
	pageWatches []*liveWatch
	order       []PageIdentity[P]
	pages       map[PageIdentity[P]]PD
	initial     *ID
	outbox      []Result[ID, PD]
	flushing    bool
}

// New creates a Pager. initialWatcher runs initialQuery; pageWatcher runs the
// queries returned by nextPage. extract is applied to every page delivered.
func New[IQ, PQ, ID, PD any, P PageInfo](
	initialWatcher Watcher[IQ, ID],
	initialQuery IQ,
	pageWatcher Watcher[PQ, PD],
	extract ExtractFunc[ID, PD, P],
	nextPage NextPageFunc[P, PQ],
	opts ...Option,
) *Pager[IQ, PQ, ID, PD, P] {
	if initialWatcher == nil || pageWatcher == nil {
		panic("watchpager: watcher cannot be nil")
	}
	if extract == nil || nextPage == nil {
		panic("watchpager: extract and nextPage functions cannot be nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Pager[IQ, PQ, ID, PD, P]{
		initialWatcher: initialWatcher,
		initialQuery:   initialQuery,
		pageWatcher:    pageWatcher,
		extract:        extract,
		nextPage:       nextPage,
		logger:         o.logger.With().Str("component", "watchpager").Logger(),
		done:           make(chan struct{}),
		pages:          make(map[PageIdentity[P]]PD),
	}
}

// NewForward creates a Pager paginating forward with ForwardPageInfo.
func NewForward[IQ, PQ, ID, PD any](
	initialWatcher Watcher[IQ, ID],
	initialQuery IQ,
	pageWatcher Watcher[PQ, PD],
	extract ExtractFunc[ID, PD, ForwardPageInfo],
	nextPage NextPageFunc[ForwardPageInfo, PQ],
	opts ...Option,
) *Pager[IQ, PQ, ID, PD, ForwardPageInfo] {
	return New(initialWatcher, initialQuery, pageWatcher, extract, nextPage, opts...)
}

// NewReverse creates a Pager paginating backward with ReversePageInfo.
func NewReverse[IQ, PQ, ID, PD any](
	initialWatcher Watcher[IQ, ID],
	initialQuery IQ,
	pageWatcher Watcher[PQ, PD],
	extract ExtractFunc[ID, PD, ReversePageInfo],
	nextPage NextPageFunc[ReversePageInfo, PQ],
	opts ...Option,
) *Pager[IQ, PQ, ID, PD, ReversePageInfo] {
	return New(initialWatcher, initialQuery, pageWatcher, extract, nextPage, opts...)
}

// Subscribe registers fn as the only subscriber. A later call replaces fn.
//
// IMPORTANT:
// The returned stop function cancels the pager (see Cancel), even if fn was
// already replaced by another subscriber.
func (p *Pager[IQ, PQ, ID, PD, P]) Subscribe(fn func(Result[ID, PD])) (stop func()) {
	s := &subscription[ID, PD]{fn: fn}

	p.mu.Lock()
	p.sub = s
	p.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			p.mu.Lock()
			if p.sub == s {
				p.sub = nil
			}
			p.mu.Unlock()

			p.Cancel()
		})
	}
}

// Fetch starts the first page watch with policy. If the watch already exists
// it is only refetched with policy.
//
// Every network delivery of the first page appends its page info to the page
// order, so refetching an active pager from the network adds another entry.
func (p *Pager[IQ, PQ, ID, PD, P]) Fetch(policy CachePolicy) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	if w := p.firstWatch; w != nil {
		h := w.handle
		if h == nil {
			// Watch has not returned yet, e.g. Fetch is called from a
			// synchronous delivery. attach applies the refetch.
			w.pending = append(w.pending, policy)
			p.mu.Unlock()
			p.logger.Debug().Uint64("watch_id", w.id).Stringer("policy", policy).Msg("deferring first page refetch")
			return
		}
		p.mu.Unlock()

		p.logger.Debug().Uint64("watch_id", w.id).Stringer("policy", policy).Msg("refetching first page")
		h.Refetch(policy)

		return
	}

	w := p.newWatchLocked()
	p.firstWatch = w
	p.mu.Unlock()

	p.logger.Debug().Uint64("watch_id", w.id).Stringer("policy", policy).Msg("starting first page watch")
	h := p.initialWatcher.Watch(p.initialQuery, policy, func(ev Event[ID]) {
		p.onInitialEvent(w, ev)
	})
	p.attach(w, h)
}

// LoadMore starts a watch for the page following the last loaded one.
// onComplete, if not nil, runs after every event of that watch.
//
// Returns false without starting anything when no first page was received
// from the network yet, when the last page cannot load more, or when
// nextPage has no query for it. It also returns false when the page order
// changed while nextPage was running. Returning true does not mean the page
// was fetched: results arrive through the subscription.
func (p *Pager[IQ, PQ, ID, PD, P]) LoadMore(policy CachePolicy, onComplete func()) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}

	if len(p.order) == 0 {
		p.mu.Unlock()
		p.misuse(ErrNoPageInfo)
		return false
	}

	current := p.order[len(p.order)-1].Info()
	generation, orderLen := p.generation, len(p.order)
	p.mu.Unlock()

	if !current.CanLoadMore() {
		return false
	}

	query, ok := p.nextPage(current)
	if !ok {
		return false
	}

	p.mu.Lock()
	if p.closed || p.generation != generation || len(p.order) != orderLen {
		p.mu.Unlock()
		p.logger.Debug().Msg("page order changed while resolving the next page")
		return false
	}

	w := p.newWatchLocked()
	p.pageWatches = append(p.pageWatches, w)
	p.mu.Unlock()

	p.logger.Debug().Uint64("watch_id", w.id).Stringer("policy", policy).Msg("starting next page watch")
	h := p.pageWatcher.Watch(query, policy, func(ev Event[PD]) {
		p.onPageEvent(w, ev, onComplete)
	})
	p.attach(w, h)

	return true
}

// Refetch discards every page and watch and fetches the first page again.
func (p *Pager[IQ, PQ, ID, PD, P]) Refetch() {
	p.Cancel()
	p.Fetch(DefaultFetchPolicy)
}

// Cancel cancels every watch and drops all loaded pages. Events still in
// flight from the cancelled watches are ignored. Fetch can be called again
// afterwards.
func (p *Pager[IQ, PQ, ID, PD, P]) Cancel() {
	p.mu.Lock()
	handles := p.resetLocked()
	p.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}

// Close cancels the pager and makes every following call a no-op. Owners
// must call Close (or Cancel) so that no watch outlives the pager. Streams
// opened with Stream are closed as well.
func (p *Pager[IQ, PQ, ID, PD, P]) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	p.sub = nil
	handles := p.resetLocked()
	p.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}

	return nil
}

// State returns the current lifecycle state.
func (p *Pager[IQ, PQ, ID, PD, P]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.firstWatch == nil:
		return StateIdle
	case p.initial == nil:
		return StateLoading
	default:
		return StateActive
	}
}

// CurrentPageInfo returns the page info of the last page in the page order.
func (p *Pager[IQ, PQ, ID, PD, P]) CurrentPageInfo() (P, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.order) == 0 {
		return lo.Empty[P](), false
	}

	return p.order[len(p.order)-1].Info(), true
}

// CanLoadMore reports whether LoadMore would find a page to continue from.
func (p *Pager[IQ, PQ, ID, PD, P]) CanLoadMore() bool {
	info, ok := p.CurrentPageInfo()

	return ok && info.CanLoadMore()
}

func (p *Pager[IQ, PQ, ID, PD, P]) onInitialEvent(w *liveWatch, ev Event[ID]) {
	var (
		id    PageIdentity[P]
		idErr error
	)
	if ev.Err == nil && ev.Data != nil && ev.Source == FromNetwork {
		id, idErr = NewPageIdentity(p.extract(InitialPage[ID, PD](*ev.Data)))
	}
	if idErr != nil {
		p.badPageInfo(idErr, w)
	}

	p.mu.Lock()
	if w.cancelled {
		p.mu.Unlock()
		return
	}

	switch {
	case ev.Err != nil:
		p.logger.Debug().Err(ev.Err).Uint64("watch_id", w.id).Msg("first page watch failed")
		p.outbox = append(p.outbox, Result[ID, PD]{Err: ev.Err})
	case ev.Data == nil:
		p.mu.Unlock()
		return
	case idErr != nil:
		p.outbox = append(p.outbox, Result[ID, PD]{Err: idErr})
	default:
		data := *ev.Data
		if ev.Source == FromNetwork {
			p.order = append(p.order, id)
		}
		p.initial = &data

		out := p.snapshotLocked(ev.Source)
		p.outbox = append(p.outbox, Result[ID, PD]{Output: out})
		p.logger.Debug().
			Uint64("watch_id", w.id).
			Stringer("source", ev.Source).
			Int("pages", len(out.Pages)).
			Msg("first page updated")
	}
	p.mu.Unlock()

	p.flush()
}

func (p *Pager[IQ, PQ, ID, PD, P]) onPageEvent(w *liveWatch, ev Event[PD], onComplete func()) {
	var (
		id    PageIdentity[P]
		idErr error
	)
	if ev.Err == nil && ev.Data != nil {
		id, idErr = NewPageIdentity(p.extract(NextPage[ID](*ev.Data)))
	}
	if idErr != nil {
		p.badPageInfo(idErr, w)
	}

	p.mu.Lock()
	if w.cancelled {
		p.mu.Unlock()
		return
	}

	switch {
	case ev.Err != nil:
		p.logger.Debug().Err(ev.Err).Uint64("watch_id", w.id).Msg("next page watch failed")
		p.outbox = append(p.outbox, Result[ID, PD]{Err: ev.Err})
	case ev.Data == nil:
	case idErr != nil:
		p.outbox = append(p.outbox, Result[ID, PD]{Err: idErr})
	default:
		// Cache deliveries only refresh a page in place.
		if ev.Source == FromNetwork {
			p.order = append(p.order, id)
		}
		p.pages[id] = *ev.Data

		if p.initial != nil {
			p.outbox = append(p.outbox, Result[ID, PD]{Output: p.snapshotLocked(ev.Source)})
		}
	}
	p.mu.Unlock()

	p.flush()
	if onComplete != nil {
		onComplete()
	}
}

// flush delivers queued results in order. Only one goroutine flushes at a
// time; a result queued while another goroutine is flushing is delivered by
// that goroutine, and a result queued from inside the subscriber is
// delivered once the subscriber returns.
func (p *Pager[IQ, PQ, ID, PD, P]) flush() {
	p.mu.Lock()
	if p.flushing {
		p.mu.Unlock()
		return
	}
	p.flushing = true

	for len(p.outbox) > 0 {
		r := p.outbox[0]
		p.outbox[0] = Result[ID, PD]{}
		p.outbox = p.outbox[1:]
		sub := p.sub
		p.mu.Unlock()

		sub.send(r)

		p.mu.Lock()
	}

	p.flushing = false
	p.outbox = nil
	p.mu.Unlock()
}

// snapshotLocked builds the merged output. p.initial must be set.
func (p *Pager[IQ, PQ, ID, PD, P]) snapshotLocked(source DataSource) Output[ID, PD] {
	pages := lo.FilterMap(p.order, func(id PageIdentity[P], _ int) (PD, bool) {
		data, ok := p.pages[id]
		return data, ok
	})

	return Output[ID, PD]{
		Initial: *p.initial,
		Pages:   pages,
		Source:  lo.Ternary(source == FromCache, SourceCache, SourceFetch),
	}
}

func (p *Pager[IQ, PQ, ID, PD, P]) newWatchLocked() *liveWatch {
	p.watchSeq++

	return &liveWatch{id: p.watchSeq}
}

// attach stores the handle returned by a Watcher and applies the refetches
// requested meanwhile. The watch may have been cancelled while Watch was
// running, in which case the handle is cancelled right away.
func (p *Pager[IQ, PQ, ID, PD, P]) attach(w *liveWatch, h WatchHandle) {
	p.mu.Lock()
	if !w.cancelled {
		w.handle = h
		pending := w.pending
		w.pending = nil
		p.mu.Unlock()

		if h != nil {
			for _, policy := range pending {
				h.Refetch(policy)
			}
		}

		return
	}
	p.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
}

// resetLocked marks every watch cancelled, clears the page state and returns
// the handles to cancel once the lock is released.
func (p *Pager[IQ, PQ, ID, PD, P]) resetLocked() []WatchHandle {
	watches := p.pageWatches
	if p.firstWatch != nil {
		watches = append(watches, p.firstWatch)
	}

	handles := make([]WatchHandle, 0, len(watches))
	for _, w := range watches {
		w.cancelled = true
		if w.handle != nil {
			handles = append(handles, w.handle)
		}
	}

	p.generation++
	p.firstWatch = nil
	p.pageWatches = nil
	p.order = nil
	clear(p.pages)
	p.initial = nil
	clear(p.outbox)
	p.outbox = p.outbox[:0]

	return handles
}

func (p *Pager[IQ, PQ, ID, PD, P]) misuse(err error) {
	p.logger.Error().Err(err).Msg("load more called before the first page was fetched")
	if debugAssertions {
		panic(err)
	}
}

func (p *Pager[IQ, PQ, ID, PD, P]) badPageInfo(err error, w *liveWatch) {
	p.logger.Error().Err(err).Uint64("watch_id", w.id).Msg("page info cannot be used as a page key")
	if debugAssertions {
		panic(err)
	}
}
