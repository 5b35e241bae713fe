package api

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while a breaker rejects calls.
var ErrBreakerOpen = errors.New("circuit breaker open")

// CircuitBreaker opens after threshold consecutive failures and rejects calls
// for openFor. The state is exported as taskboard_circuit_open{name}.
type CircuitBreaker struct {
	name       string
	mu         sync.Mutex
	failures   int
	openedTill time.Time
	threshold  int
	openFor    time.Duration
	open       bool
	now        func() time.Time
}

func NewCircuitBreaker(name string, threshold int, openFor time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	b := &CircuitBreaker{name: name, threshold: threshold, openFor: openFor, now: time.Now}
	circuitOpen.WithLabelValues(name).Set(0)
	return b
}

func (b *CircuitBreaker) setOpen(open bool) {
	b.open = open
	v := 0.0
	if open {
		v = 1
	}
	circuitOpen.WithLabelValues(b.name).Set(v)
}

func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.now().Before(b.openedTill) {
		if !b.open {
			b.setOpen(true)
		}
		return false
	}
	if b.open {
		b.setOpen(false)
	}
	return true
}

func (b *CircuitBreaker) ReportSuccess() {
	b.mu.Lock()
	b.failures = 0
	if b.open {
		b.setOpen(false)
	}
	b.mu.Unlock()
}

func (b *CircuitBreaker) ReportFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.openedTill = b.now().Add(b.openFor)
		b.failures = 0
		b.setOpen(true)
	}
}

// GuardedIdempotency short-circuits a remote IdempotencyStore while it keeps
// failing, so requests skip replay lookups instead of waiting on timeouts.
type GuardedIdempotency struct {
	Store   IdempotencyStore
	Breaker *CircuitBreaker
}

func (g GuardedIdempotency) Get(ctx context.Context, key string) (StoredResponse, bool, error) {
	if !g.Breaker.Allow() {
		return StoredResponse{}, false, ErrBreakerOpen
	}
	r, ok, err := g.Store.Get(ctx, key)
	g.report(err)
	return r, ok, err
}

func (g GuardedIdempotency) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !g.Breaker.Allow() {
		return false, ErrBreakerOpen
	}
	ok, err := g.Store.Reserve(ctx, key, ttl)
	g.report(err)
	return ok, err
}

func (g GuardedIdempotency) Release(ctx context.Context, key string) error {
	if !g.Breaker.Allow() {
		return ErrBreakerOpen
	}
	err := g.Store.Release(ctx, key)
	g.report(err)
	return err
}

func (g GuardedIdempotency) Put(ctx context.Context, key string, r StoredResponse) error {
	if !g.Breaker.Allow() {
		return ErrBreakerOpen
	}
	err := g.Store.Put(ctx, key, r)
	g.report(err)
	return err
}

func (g GuardedIdempotency) report(err error) {
	if err != nil {
		g.Breaker.ReportFailure()
	} else {
		g.Breaker.ReportSuccess()
	}
}
