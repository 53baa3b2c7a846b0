package watchpager

import (
	"sync"
)

// fakeWatch is a scripted watch. Deliveries go to the handler even after
// Cancel, which mimics a query mechanism with events already in flight.
type fakeWatch[Q, D any] struct {
	mu        sync.Mutex
	query     Q
	policy    CachePolicy
	handler   func(Event[D])
	refetches []CachePolicy
	cancels   int
}

func (w *fakeWatch[Q, D]) Refetch(policy CachePolicy) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.refetches = append(w.refetches, policy)
}

func (w *fakeWatch[Q, D]) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancels++
}

func (w *fakeWatch[Q, D]) isCancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.cancels > 0
}

func (w *fakeWatch[Q, D]) network(data D) {
	w.handler(Event[D]{Data: &data, Source: FromNetwork})
}

func (w *fakeWatch[Q, D]) cache(data D) {
	w.handler(Event[D]{Data: &data, Source: FromCache})
}

func (w *fakeWatch[Q, D]) fail(err error) {
	w.handler(Event[D]{Err: err, Source: FromNetwork})
}

func (w *fakeWatch[Q, D]) empty() {
	w.handler(Event[D]{Source: FromCache})
}

type fakeWatcher[Q, D any] struct {
	mu      sync.Mutex
	watches []*fakeWatch[Q, D]
}

func (f *fakeWatcher[Q, D]) Watch(query Q, policy CachePolicy, handler func(Event[D])) WatchHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &fakeWatch[Q, D]{query: query, policy: policy, handler: handler}
	f.watches = append(f.watches, w)

	return w
}

func (f *fakeWatcher[Q, D]) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.watches)
}

func (f *fakeWatcher[Q, D]) last() *fakeWatch[Q, D] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.watches) == 0 {
		return nil
	}

	return f.watches[len(f.watches)-1]
}

func (f *fakeWatcher[Q, D]) at(i int) *fakeWatch[Q, D] {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.watches[i]
}

// recorder collects subscriber deliveries.
type recorder[ID, PD any] struct {
	mu      sync.Mutex
	results []Result[ID, PD]
}

func (r *recorder[ID, PD]) record(res Result[ID, PD]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, res)
}

func (r *recorder[ID, PD]) all() []Result[ID, PD] {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Result[ID, PD](nil), r.results...)
}

func (r *recorder[ID, PD]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.results)
}

func (r *recorder[ID, PD]) lastResult() Result[ID, PD] {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.results[len(r.results)-1]
}

// page is the data type used for both first and next pages in tests.
type page struct {
	Name string
	Info ForwardPageInfo
}

func extractPage(d PageData[page, page]) ForwardPageInfo {
	if v, ok := d.AsInitial(); ok {
		return v.Info
	}

	v, _ := d.AsPaginated()

	return v.Info
}

func nextAfter(info ForwardPageInfo) (string, bool) {
	return info.After, info.After != ""
}

func newPage(name, after string, hasNext bool) page {
	return page{Name: name, Info: ForwardPageInfo{First: 2, After: after, HasNext: hasNext}}
}

type testPager = Pager[string, string, page, page, ForwardPageInfo]

func newTestPager() (*testPager, *fakeWatcher[string, page], *fakeWatcher[string, page], *recorder[page, page]) {
	initial := new(fakeWatcher[string, page])
	pages := new(fakeWatcher[string, page])
	rec := new(recorder[page, page])

	p := NewForward[string, string, page, page](initial, "first", pages, extractPage, nextAfter)
	p.Subscribe(rec.record)

	return p, initial, pages, rec
}
