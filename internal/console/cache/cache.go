// Package cache implements the process-local collection cache: a keyed store
// holding the most recently fetched snapshot of a remote collection together
// with its fetch status, staleness and subscribers.
//
// The cache is the only shared mutable state of the console core. Entries are
// written exclusively through Cache methods; consumers receive copies of the
// entry state (Snapshot) through Get or through subscription listeners.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultGCTime is how long an entry without subscribers is kept around.
const DefaultGCTime = 5 * time.Minute

// Key identifies a cached collection.
type Key string

// Status is the fetch status of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of an entry's state at one point in time. Data is shared
// with the cache and must be treated as read-only.
type Snapshot[T any] struct {
	Key     Key
	Data    T
	HasData bool
	Status  Status
	Err     error
	// Stale is set by invalidation; last known data stays visible until the
	// next successful fetch replaces it.
	Stale       bool
	UpdatedAt   time.Time
	Subscribers int
}

// IsLoading reports whether a fetch for the entry is in flight.
func (s Snapshot[T]) IsLoading() bool {
	return s.Status == StatusLoading
}

// Listener receives a snapshot on every state transition of the key it
// subscribed to.
type Listener[T any] func(Snapshot[T])

// Token ties a fetch result to the entry and generation it was started for.
type Token[T any] struct {
	key        Key
	entry      *entry[T]
	generation uint64
}

// Key returns the key the fetch was started for.
func (t Token[T]) Key() Key {
	return t.key
}

type subscriber[T any] struct {
	id uint64
	fn Listener[T]
}

type entry[T any] struct {
	data      T
	hasData   bool
	status    Status
	err       error
	stale     bool
	updatedAt time.Time

	// generation is bumped on every invalidation.
	generation uint64
	subs       []subscriber[T]
	gcTimer    *time.Timer
}

// Cache holds one entry per key.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[Key]*entry[T]
	nextSub uint64

	gcTime time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	gcTime time.Duration
	now    func() time.Time
}

// WithGCTime sets how long an entry without subscribers survives. Zero or a
// negative duration removes it as soon as the last subscriber leaves.
func WithGCTime(d time.Duration) Option {
	return func(o *options) {
		o.gcTime = d
	}
}

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates an empty cache.
func New[T any](logger *zap.Logger, opts ...Option) *Cache[T] {
	o := options{gcTime: DefaultGCTime, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		entries: make(map[Key]*entry[T]),
		gcTime:  o.gcTime,
		now:     o.now,
		logger:  logger.Named("collection_cache"),
	}
}

// Get returns a snapshot of the entry for key.
func (c *Cache[T]) Get(key Key) (Snapshot[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot[T]{Key: key}, false
	}
	return e.snapshot(key), true
}

// Set stores data as the fresh value for key, creating the entry if needed.
func (c *Cache[T]) Set(key Key, data T) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.data = data
	e.hasData = true
	e.status = StatusSuccess
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	c.scheduleGCLocked(key, e)
	c.notifyAndUnlock(key, e)
}

// SetError records a failed fetch for key. Previously fetched data stays
// visible.
func (c *Cache[T]) SetError(key Key, err error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.status = StatusError
	e.err = err
	c.scheduleGCLocked(key, e)
	c.notifyAndUnlock(key, e)
}

// Invalidate marks the entry for key stale so the next freshness check
// refetches it. Data is kept. It reports whether the key exists.
func (c *Cache[T]) Invalidate(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	e.stale = true
	e.generation++
	c.logger.Debug("entry invalidated",
		zap.String("key", string(key)),
		zap.Uint64("generation", e.generation),
	)
	c.notifyAndUnlock(key, e)
	return true
}

// Subscribe registers listener for key, creating an idle entry on first use.
// The returned function unsubscribes; calling it more than once is a no-op.
// A nil listener still counts as a subscriber.
func (c *Cache[T]) Subscribe(key Key, listener Listener[T]) (unsubscribe func()) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	c.nextSub++
	id := c.nextSub
	e.subs = append(e.subs, subscriber[T]{id: id, fn: listener})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.unsubscribe(key, e, id)
		})
	}
}

// Subscribers returns the number of subscribers of key.
func (c *Cache[T]) Subscribers(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return len(e.subs)
	}
	return 0
}

// BeginFetch moves the entry for key to loading when should reports that the
// current state needs a fetch. It refuses while a fetch is already in flight,
// which keeps at most one fetch per key. A nil should always fetches.
func (c *Cache[T]) BeginFetch(key Key, should func(Snapshot[T]) bool) (Token[T], bool) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.status == StatusLoading || (should != nil && !should(e.snapshot(key))) {
		c.mu.Unlock()
		return Token[T]{}, false
	}
	e.status = StatusLoading
	tok := Token[T]{key: key, entry: e, generation: e.generation}
	c.notifyAndUnlock(key, e)
	return tok, true
}

// Resolve stores the result of the fetch identified by tok. A result for an
// entry that has since been removed is dropped; a result that predates an
// invalidation is stored but stays stale. It reports whether the result was
// applied.
func (c *Cache[T]) Resolve(tok Token[T], data T) bool {
	c.mu.Lock()
	e, ok := c.entries[tok.key]
	if !ok || e != tok.entry {
		c.mu.Unlock()
		c.logger.Debug("dropping fetch result for evicted entry", zap.String("key", string(tok.key)))
		return false
	}
	e.data = data
	e.hasData = true
	e.status = StatusSuccess
	e.err = nil
	e.stale = e.generation != tok.generation
	e.updatedAt = c.now()
	c.scheduleGCLocked(tok.key, e)
	c.notifyAndUnlock(tok.key, e)
	return true
}

// Reject records the failure of the fetch identified by tok.
func (c *Cache[T]) Reject(tok Token[T], err error) bool {
	c.mu.Lock()
	e, ok := c.entries[tok.key]
	if !ok || e != tok.entry {
		c.mu.Unlock()
		return false
	}
	e.status = StatusError
	e.err = err
	c.scheduleGCLocked(tok.key, e)
	c.notifyAndUnlock(tok.key, e)
	return true
}

// Remove drops the entry for key. Subscribers are not notified.
func (c *Cache[T]) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
		delete(c.entries, key)
	}
}

// Clear drops every entry and stops pending garbage collection.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
	}
	c.entries = make(map[Key]*entry[T])
}

func (c *Cache[T]) entryLocked(key Key) *entry[T] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{status: StatusIdle}
		c.entries[key] = e
	}
	return e
}

func (c *Cache[T]) unsubscribe(key Key, e *entry[T], id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			break
		}
	}
	if c.entries[key] == e {
		c.scheduleGCLocked(key, e)
	}
}

// scheduleGCLocked arms removal of an entry that has no subscribers. A
// loading entry is kept until its fetch settles, so that a later fetch for
// the same key joins it instead of starting a second one; Resolve and Reject
// schedule it again.
func (c *Cache[T]) scheduleGCLocked(key Key, e *entry[T]) {
	if len(e.subs) > 0 || e.gcTimer != nil || e.status == StatusLoading {
		return
	}
	if c.gcTime <= 0 {
		delete(c.entries, key)
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(c.gcTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.entries[key] != e || e.gcTimer != timer {
			return
		}
		e.gcTimer = nil
		if len(e.subs) > 0 || e.status == StatusLoading {
			return
		}
		delete(c.entries, key)
		c.logger.Debug("entry garbage collected", zap.String("key", string(key)))
	})
	e.gcTimer = timer
}

// notifyAndUnlock releases c.mu and delivers the entry's new state to its
// subscribers in subscription order.
func (c *Cache[T]) notifyAndUnlock(key Key, e *entry[T]) {
	snap := e.snapshot(key)
	listeners := make([]Listener[T], 0, len(e.subs))
	for _, s := range e.subs {
		if s.fn != nil {
			listeners = append(listeners, s.fn)
		}
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (e *entry[T]) snapshot(key Key) Snapshot[T] {
	return Snapshot[T]{
		Key:         key,
		Data:        e.data,
		HasData:     e.hasData,
		Status:      e.status,
		Err:         e.err,
		Stale:       e.stale,
		UpdatedAt:   e.updatedAt,
		Subscribers: len(e.subs),
	}
}
