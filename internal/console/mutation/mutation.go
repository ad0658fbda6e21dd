// Package mutation runs mutating operations against the remote collection
// and keeps the cache consistent with them: a successful mutation invalidates
// the cache keys it affects, a failed one leaves the cache untouched.
package mutation

import (
	"context"
	"errors"
	"sync"

	"github.com/gartstein/companyconsole/internal/console/cache"
	"go.uber.org/zap"
)

// ErrClosed is reported by Invoke on a mutation that was closed.
var ErrClosed = errors.New("mutation closed")

// Status is the lifecycle status of a mutation.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the state of the latest invocation of a mutation.
type State[R any] struct {
	Status Status
	Result R
	Err    error
}

func (s State[R]) IsIdle() bool    { return s.Status == StatusIdle }
func (s State[R]) IsPending() bool { return s.Status == StatusPending }
func (s State[R]) IsSuccess() bool { return s.Status == StatusSuccess }
func (s State[R]) IsError() bool   { return s.Status == StatusError }

// Func performs the remote write.
type Func[I, R any] func(ctx context.Context, input I) (R, error)

// Listener is told about every state change of a mutation.
type Listener[R any] func(State[R])

// Invalidator marks cache keys stale.
type Invalidator interface {
	Invalidate(key cache.Key)
}

// Config describes one mutation.
type Config[I, R any] struct {
	// Name is used in logs.
	Name string
	Fn   Func[I, R]
	// Validate rejects an input before Fn is called.
	Validate func(I) error
	// Invalidates lists the keys marked stale after a successful call.
	Invalidates []cache.Key
	Listener    Listener[R]
	// OnSuccess runs after invalidation, also for invocations whose state was
	// superseded.
	OnSuccess func(ctx context.Context, input I, result R)
}

// Mutation is a reusable handle on one mutating operation. Each Invoke
// supersedes the previous one: the result of an older invocation still
// invalidates the cache but never reaches State.
type Mutation[I, R any] struct {
	cfg         Config[I, R]
	invalidator Invalidator
	logger      *zap.Logger

	mu         sync.Mutex
	state      State[R]
	generation uint64
	closed     bool
}

// New creates an idle mutation.
func New[I, R any](cfg Config[I, R], invalidator Invalidator, logger *zap.Logger) *Mutation[I, R] {
	return &Mutation[I, R]{
		cfg:         cfg,
		invalidator: invalidator,
		logger:      logger.Named("mutation").With(zap.String("mutation", cfg.Name)),
	}
}

// State returns the state of the latest invocation.
func (m *Mutation[I, R]) State() State[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Invoke validates input, runs the operation and returns the resulting
// state. It blocks for the duration of the remote call.
func (m *Mutation[I, R]) Invoke(ctx context.Context, input I) State[R] {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return State[R]{Status: StatusError, Err: ErrClosed}
	}
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	if m.cfg.Validate != nil {
		if err := m.cfg.Validate(input); err != nil {
			m.logger.Debug("input rejected", zap.Error(err))
			st := State[R]{Status: StatusError, Err: err}
			m.apply(gen, st)
			return st
		}
	}

	m.apply(gen, State[R]{Status: StatusPending})

	result, err := m.cfg.Fn(ctx, input)
	if err != nil {
		m.logger.Warn("mutation failed", zap.Error(err))
		st := State[R]{Status: StatusError, Err: err}
		m.apply(gen, st)
		return st
	}

	for _, key := range m.cfg.Invalidates {
		m.invalidator.Invalidate(key)
	}

	st := State[R]{Status: StatusSuccess, Result: result}
	if !m.apply(gen, st) {
		m.logger.Debug("result of superseded invocation discarded")
	}
	if m.cfg.OnSuccess != nil {
		m.cfg.OnSuccess(ctx, input, result)
	}
	return st
}

// Trigger runs Invoke in the background. The returned channel receives the
// final state of this invocation.
func (m *Mutation[I, R]) Trigger(ctx context.Context, input I) <-chan State[R] {
	done := make(chan State[R], 1)
	go func() {
		done <- m.Invoke(ctx, input)
	}()
	return done
}

// Reset returns the mutation to idle. An invocation still in flight will not
// update the state anymore.
func (m *Mutation[I, R]) Reset() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	m.state = State[R]{}
	listener := m.cfg.Listener
	m.mu.Unlock()

	if listener != nil {
		listener(State[R]{})
	}
}

// Close discards the mutation. In-flight invocations complete, and still
// invalidate the cache on success, but their results are dropped.
func (m *Mutation[I, R]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.generation++
}

// apply stores st unless the invocation gen was superseded or the mutation
// closed.
func (m *Mutation[I, R]) apply(gen uint64, st State[R]) bool {
	m.mu.Lock()
	if m.closed || gen != m.generation {
		m.mu.Unlock()
		return false
	}
	m.state = st
	listener := m.cfg.Listener
	m.mu.Unlock()

	if listener != nil {
		listener(st)
	}
	return true
}
