// Package query coordinates reads of cached collections: it serves fresh
// entries straight from the cache, deduplicates fetches so that at most one
// is in flight per key, and refetches entries that were invalidated.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gartstein/companyconsole/internal/console/cache"
	"go.uber.org/zap"
)

// ErrEvicted is returned by Subscription.Wait when the entry it waits on no
// longer exists, typically because the client was closed.
var ErrEvicted = errors.New("cache entry evicted")

// ErrNoFetcher is returned by Subscription.Wait when the entry has never been
// fetched and no fetcher is registered for its key, so nothing would ever
// settle it.
var ErrNoFetcher = errors.New("no fetcher registered for key")

// Fetcher loads the full collection for a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Client is the query coordinator for one cache.
type Client[T any] struct {
	cache  *cache.Cache[T]
	logger *zap.Logger

	staleTime           time.Duration
	refetchOnInvalidate bool
	now                 func() time.Time

	mu       sync.Mutex
	fetchers map[cache.Key]Fetcher[T]
	closed   bool

	// ctx bounds every fetch; it is cancelled by Close, never by a single
	// subscriber going away.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Client.
type Option func(*options)

type options struct {
	staleTime           time.Duration
	refetchOnInvalidate bool
	now                 func() time.Time
}

// WithStaleTime makes successful data stale once it is older than d. Zero
// keeps data fresh until it is invalidated.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		o.staleTime = d
	}
}

// WithRefetchOnInvalidate controls whether invalidating a key that has
// subscribers refetches it right away. Enabled by default.
func WithRefetchOnInvalidate(enabled bool) Option {
	return func(o *options) {
		o.refetchOnInvalidate = enabled
	}
}

// WithClock overrides the clock used for stale time checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a Client reading through c.
func New[T any](c *cache.Cache[T], logger *zap.Logger, opts ...Option) *Client[T] {
	o := options{refetchOnInvalidate: true, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client[T]{
		cache:               c,
		logger:              logger.Named("query_client"),
		staleTime:           o.staleTime,
		refetchOnInvalidate: o.refetchOnInvalidate,
		now:                 o.now,
		fetchers:            make(map[cache.Key]Fetcher[T]),
		ctx:                 ctx,
		cancel:              cancel,
	}
}

// EnsureFresh subscribes listener to key and makes sure the entry is, or is
// about to become, fresh:
//   - a fetch already in flight is joined, never duplicated;
//   - a missing, stale or failed entry starts exactly one fetch;
//   - a fresh entry is served from the cache without a network call.
//
// The fetcher is remembered for key and reused by Invalidate. listener may be
// nil.
func (c *Client[T]) EnsureFresh(key cache.Key, fetch Fetcher[T], listener cache.Listener[T]) *Subscription[T] {
	sub := &Subscription[T]{
		key:     key,
		client:  c,
		changed: make(chan struct{}, 1),
	}
	sub.unsubscribe = c.cache.Subscribe(key, func(s cache.Snapshot[T]) {
		if listener != nil {
			listener(s)
		}
		sub.signal()
	})

	if fetch != nil {
		c.mu.Lock()
		c.fetchers[key] = fetch
		c.mu.Unlock()
	}

	c.ensure(key)
	return sub
}

// Fetch returns the data for key, fetching it only when the cached entry is
// not fresh. Concurrent callers share a single fetch.
func (c *Client[T]) Fetch(ctx context.Context, key cache.Key, fetch Fetcher[T]) (T, error) {
	sub := c.EnsureFresh(key, fetch, nil)
	defer sub.Unsubscribe()

	snap, err := sub.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return snap.Data, nil
}

// Invalidate marks key stale. When the key has subscribers it is refetched
// right away, unless that was disabled with WithRefetchOnInvalidate.
func (c *Client[T]) Invalidate(key cache.Key) {
	if !c.cache.Invalidate(key) {
		return
	}
	c.logger.Debug("query invalidated", zap.String("key", string(key)))

	if c.refetchOnInvalidate && c.cache.Subscribers(key) > 0 {
		c.ensure(key)
	}
}

// Close cancels in-flight fetches, waits for them to return and clears the
// cache. The client must not be used afterwards.
func (c *Client[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.cache.Clear()
	c.logger.Debug("query client closed")
}

func (c *Client[T]) ensure(key cache.Key) {
	c.mu.Lock()
	fetch, closed := c.fetchers[key], c.closed
	c.mu.Unlock()
	if fetch == nil || closed {
		return
	}

	tok, ok := c.cache.BeginFetch(key, c.needsFetch)
	if !ok {
		return
	}
	if !c.track() {
		c.cache.Reject(tok, context.Canceled)
		return
	}
	go c.run(tok, fetch)
}

// track registers a fetch goroutine unless the client is closing.
func (c *Client[T]) track() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

func (c *Client[T]) run(tok cache.Token[T], fetch Fetcher[T]) {
	defer c.wg.Done()

	key := tok.Key()
	c.logger.Debug("fetch started", zap.String("key", string(key)))

	data, err := fetch(c.ctx)
	if err != nil {
		c.logger.Warn("fetch failed", zap.String("key", string(key)), zap.Error(err))
		c.cache.Reject(tok, err)
		return
	}
	if !c.cache.Resolve(tok, data) {
		return
	}

	// Invalidated while in flight: the result may predate the write that
	// invalidated it.
	snap, ok := c.cache.Get(key)
	if ok && snap.Stale && snap.Subscribers > 0 && c.refetchOnInvalidate {
		c.ensure(key)
	}
}

func (c *Client[T]) hasFetcher(key cache.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchers[key] != nil
}

func (c *Client[T]) needsFetch(s cache.Snapshot[T]) bool {
	switch {
	case s.Status == cache.StatusLoading:
		return false
	case !s.HasData, s.Status == cache.StatusError, s.Stale:
		return true
	case c.staleTime > 0 && c.now().Sub(s.UpdatedAt) >= c.staleTime:
		return true
	default:
		return false
	}
}

// Subscription is one consumer's read handle on a key.
type Subscription[T any] struct {
	key         cache.Key
	client      *Client[T]
	changed     chan struct{}
	unsubscribe func()
}

// Key returns the subscribed key.
func (s *Subscription[T]) Key() cache.Key {
	return s.key
}

// Snapshot returns the current state of the subscribed entry.
func (s *Subscription[T]) Snapshot() cache.Snapshot[T] {
	snap, _ := s.client.cache.Get(s.key)
	return snap
}

// Wait blocks until no fetch is in flight for the key and returns the entry
// state. The returned error is the fetch error, if the entry is in error, or
// the context error. Waiting on an idle key that has no registered fetcher
// fails with ErrNoFetcher instead of blocking.
func (s *Subscription[T]) Wait(ctx context.Context) (cache.Snapshot[T], error) {
	for {
		snap, ok := s.client.cache.Get(s.key)
		if !ok {
			return snap, ErrEvicted
		}
		switch snap.Status {
		case cache.StatusSuccess:
			return snap, nil
		case cache.StatusError:
			return snap, snap.Err
		case cache.StatusIdle:
			if !s.client.hasFetcher(s.key) {
				return snap, ErrNoFetcher
			}
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-s.changed:
		}
	}
}

// Unsubscribe stops notifications for this consumer. A fetch shared with
// other subscribers keeps running.
func (s *Subscription[T]) Unsubscribe() {
	s.unsubscribe()
}

func (s *Subscription[T]) signal() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
