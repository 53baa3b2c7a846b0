package gormwatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Alp4ka/watchpager"
)

// Query is a watched query. Queries with the same Key share one cache entry.
type Query[D any] interface {
	Key() string
	Run(ctx context.Context, db *gorm.DB) (D, error)
}

// Client runs watched queries against a database and keeps their latest
// results in an in-process cache. A cache write, whether from a fetch or from
// Write, is delivered to every other live watch on the same key as a cache
// event.
type Client[D any] struct {
	db      *gorm.DB
	logger  zerolog.Logger
	timeout time.Duration
	metrics *metrics
	group   singleflight.Group

	mu      sync.Mutex
	cache   map[string]D
	watches map[string]map[*watch[D]]struct{}
}

func New[D any](db *gorm.DB, opts ...Option) *Client[D] {
	if db == nil {
		panic("gormwatch: db cannot be nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Client[D]{
		db:      db,
		logger:  o.logger.With().Str("component", "gormwatch").Str("client", o.name).Logger(),
		timeout: o.timeout,
		metrics: newMetrics(o.registerer, o.name),
		cache:   make(map[string]D),
		watches: make(map[string]map[*watch[D]]struct{}),
	}
}

// Watch - implements watchpager.Watcher. The first trigger runs in the
// background with policy; handler is never called from inside Watch.
func (c *Client[D]) Watch(q Query[D], policy watchpager.CachePolicy, handler func(watchpager.Event[D])) watchpager.WatchHandle {
	w := &watch[D]{
		id:      uuid.New(),
		client:  c,
		query:   q,
		key:     q.Key(),
		handler: handler,
	}

	c.mu.Lock()
	set, ok := c.watches[w.key]
	if !ok {
		set = make(map[*watch[D]]struct{})
		c.watches[w.key] = set
	}
	set[w] = struct{}{}
	c.mu.Unlock()

	c.metrics.LiveWatches.Inc()
	c.logger.Debug().
		Str("watch_id", w.id.String()).
		Str("query", w.key).
		Stringer("policy", policy).
		Msg("watch started")

	go w.run(policy)

	return w
}

// Read returns the cached result of key.
func (c *Client[D]) Read(key string) (D, bool) {
	c.mu.Lock()
	data, ok := c.cache[key]
	c.mu.Unlock()

	if ok {
		c.metrics.CacheHits.Inc()
	} else {
		c.metrics.CacheMisses.Inc()
	}

	return data, ok
}

// Write replaces the cached result of key and notifies every watch on it.
func (c *Client[D]) Write(key string, data D) {
	c.store(key, data, nil)
}

// Evict drops the cached result of key. Watches are not notified.
func (c *Client[D]) Evict(key string) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}

func (c *Client[D]) store(key string, data D, origin *watch[D]) {
	c.mu.Lock()
	c.cache[key] = data
	targets := make([]*watch[D], 0, len(c.watches[key]))
	for w := range c.watches[key] {
		if w != origin {
			targets = append(targets, w)
		}
	}
	c.mu.Unlock()

	for _, w := range targets {
		c.metrics.CacheEchoes.Inc()
		w.deliver(watchpager.Event[D]{Data: &data, Source: watchpager.FromCache})
	}
}

// fetch runs q once per key at a time. The database round trip is detached
// from the watch that started it, because other watches may share it.
func (c *Client[D]) fetch(q Query[D], key string) (D, error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		c.metrics.NetworkFetches.Inc()

		return q.Run(ctx, c.db)
	})
	if err != nil {
		c.metrics.FetchErrors.Inc()
		var zero D
		return zero, fmt.Errorf("cannot run query '%s': %w", key, err)
	}

	if shared {
		c.logger.Debug().Str("query", key).Msg("shared in-flight fetch")
	}

	data, _ := v.(D)

	return data, nil
}

func (c *Client[D]) remove(w *watch[D]) {
	c.mu.Lock()
	if set, ok := c.watches[w.key]; ok {
		delete(set, w)
		if len(set) == 0 {
			delete(c.watches, w.key)
		}
	}
	c.mu.Unlock()

	c.metrics.LiveWatches.Dec()
}

type watch[D any] struct {
	id      uuid.UUID
	client  *Client[D]
	query   Query[D]
	key     string
	handler func(watchpager.Event[D])

	cancelled atomic.Bool
	// deliverMu keeps deliveries of one watch sequential.
	deliverMu sync.Mutex
}

// Refetch - implements watchpager.WatchHandle.
func (w *watch[D]) Refetch(policy watchpager.CachePolicy) {
	if w.cancelled.Load() {
		return
	}

	go w.run(policy)
}

// Cancel - implements watchpager.WatchHandle.
func (w *watch[D]) Cancel() {
	if w.cancelled.Swap(true) {
		return
	}

	w.client.remove(w)
	w.client.logger.Debug().Str("watch_id", w.id.String()).Str("query", w.key).Msg("watch cancelled")
}

func (w *watch[D]) run(policy watchpager.CachePolicy) {
	c := w.client

	if policy.ReadsCache() {
		data, ok := c.Read(w.key)

		switch {
		case ok:
			w.deliver(watchpager.Event[D]{Data: &data, Source: watchpager.FromCache})
			if policy != watchpager.ReturnCacheDataAndFetch {
				return
			}
		case policy == watchpager.ReturnCacheDataDontFetch:
			w.deliver(watchpager.Event[D]{Source: watchpager.FromCache})
			return
		}
	}

	if w.cancelled.Load() {
		return
	}

	data, err := c.fetch(w.query, w.key)
	if err != nil {
		c.logger.Warn().Err(err).Str("watch_id", w.id.String()).Msg("fetch failed")
		w.deliver(watchpager.Event[D]{Err: err, Source: watchpager.FromNetwork})
		return
	}

	w.deliver(watchpager.Event[D]{Data: &data, Source: watchpager.FromNetwork})

	if policy != watchpager.FetchIgnoringCacheCompletely {
		c.store(w.key, data, w)
	}
}

func (w *watch[D]) deliver(ev watchpager.Event[D]) {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	if w.cancelled.Load() {
		return
	}

	w.handler(ev)
}

var _ watchpager.Watcher[Query[int], int] = (*Client[int])(nil)
