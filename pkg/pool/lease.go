package pool

import (
	"runtime"
	"sync/atomic"
)

// Lease is the scoped handle returned by Checkout. It exposes read
// access to the borrowed connection and guarantees, via Release, that
// the connection returns to the pool. A Lease owns its connection
// exclusively for its lifetime — the Pool never sees or touches that
// connection until Release runs.
type Lease[C any] struct {
	pool     *Pool[C]
	conn     C
	released atomic.Bool
}

// newLease wraps conn in a Lease and arms a leak safety net: Go has no
// destructors, so rather than aborting the process when a Lease is
// never released, a finalizer force-reclaims the connection and logs if
// the caller drops the Lease without calling Release. defer
// lease.Release() remains the idiomatic, deterministic way to give the
// connection back.
func (p *Pool[C]) newLease(conn C) *Lease[C] {
	l := &Lease[C]{pool: p, conn: conn}
	runtime.SetFinalizer(l, func(leaked *Lease[C]) {
		if leaked.released.CompareAndSwap(false, true) {
			leaked.pool.logger.Printf(
				"[pool] %s: Lease garbage-collected without Release, force-reclaiming connection",
				leaked.pool.name)
			leaked.pool.release(leaked.conn)
		}
	})
	return l
}

// Conn returns the underlying borrowed connection. Callers treat the
// Lease as if it were the connection itself.
func (l *Lease[C]) Conn() C {
	return l.conn
}

// Release returns the connection to the pool and wakes one waiter. It
// is idempotent-checked, not idempotent: a second call is a programmer
// error and panics, per the "a Lease can be released at most once" law.
func (l *Lease[C]) Release() {
	if !l.released.CompareAndSwap(false, true) {
		panic("pool: Lease released more than once")
	}
	runtime.SetFinalizer(l, nil)
	l.pool.release(l.conn)
}
