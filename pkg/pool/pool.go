// Package pool implements a generic, bounded connection pool: a reusable
// runtime component that manages a population of expensive-to-create
// resources on behalf of many concurrent callers. It amortizes
// connection establishment, caps total resource usage via Config.MaxSize,
// and returns broken connections to service so steady-state checkout
// latency is dominated by useful work rather than setup.
//
// The pool is deliberately narrow: it knows nothing about transactions,
// query execution, health-check scheduling beyond what Manager.IsValid
// does inline, connection warm-up beyond the initial population, or
// fairness among waiters. Callers needing those build them on top.
package pool

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/evoila/genpool/pkg/pool/metrics"
)

// ErrClosed is returned by Checkout once Shutdown has been called, both
// to new callers and to any waiter blocked at the time of shutdown.
var ErrClosed = errors.New("pool: closed")

// Pool is the facade: construction, checkout, release, and shutdown all
// go through it. It brokers between callers, the guarded state, and the
// helper workers.
//
// A Pool is reference-shared with every helper worker and every
// outstanding Lease; its lifetime is the longest of these holders —
// callers must not call Shutdown while Leases are still outstanding if
// they intend to keep using this Pool afterward (outstanding Leases
// remain valid and may still Release after Shutdown, per §5; no new
// connections will be created for them).
type Pool[C any] struct {
	cfg Config
	mgr Manager[C]

	mu      sync.Mutex
	cond    *sync.Cond
	st      state[C]
	waiters int
	closed  bool

	cmds chan command[C]
	wg   sync.WaitGroup

	logger   *log.Logger
	recorder metrics.Recorder
	name     string
}

// Option configures optional Pool behavior at construction time.
type Option[C any] func(*Pool[C])

// WithLogger overrides the *log.Logger a Pool uses. The default is
// log.Default().
func WithLogger[C any](l *log.Logger) Option[C] {
	return func(p *Pool[C]) { p.logger = l }
}

// WithRecorder attaches a metrics.Recorder. The default is metrics.Noop,
// so instrumentation never costs anything unless a caller opts in.
func WithRecorder[C any](r metrics.Recorder) Option[C] {
	return func(p *Pool[C]) { p.recorder = r }
}

// WithName sets the label/tag this Pool uses in log lines and metrics.
// The default is "pool".
func WithName[C any](name string) Option[C] {
	return func(p *Pool[C]) { p.name = name }
}

// New validates cfg, synchronously creates cfg.InitialSize connections,
// starts cfg.HelperWorkers background workers, and returns the Pool
// facade.
//
// On invalid config, returns *InvalidConfigError and creates nothing.
// On the first failure during initial population, returns
// *CreationFailedError and discards any connections already built —
// a pool that starts below its configured baseline indicates a
// misconfiguration or a down dependency, and failing fast here is
// preferable to surfacing the same error on the first Checkout.
func New[C any](ctx context.Context, cfg Config, mgr Manager[C], opts ...Option[C]) (*Pool[C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, &InvalidConfigError{Reason: err.Error()}
	}

	p := &Pool[C]{
		cfg:      cfg,
		mgr:      mgr,
		cmds:     make(chan command[C], cfg.MaxSize),
		logger:   log.Default(),
		recorder: metrics.Noop{},
		name:     "pool",
	}
	p.cond = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < cfg.InitialSize; i++ {
		conn, err := mgr.Create(ctx)
		if err != nil {
			p.logger.Printf("[pool] %s: initial population failed at connection %d/%d: %v",
				p.name, i+1, cfg.InitialSize, err)
			return nil, &CreationFailedError{Err: err}
		}
		p.st.pushIdle(conn)
	}
	p.st.total = cfg.InitialSize

	p.logger.Printf("[pool] %s: initialized: %d idle, max=%d, workers=%d",
		p.name, len(p.st.idle), cfg.MaxSize, cfg.HelperWorkers)

	for i := 0; i < cfg.HelperWorkers; i++ {
		p.wg.Add(1)
		go p.helperLoop()
	}

	p.mu.Lock()
	p.publishLocked()
	p.mu.Unlock()

	return p, nil
}

// Checkout borrows a connection from the pool, blocking whenever none is
// idle: until a helper worker publishes a Create result or, with the pool
// at MaxSize, until a connection is released. It loops: pop idle
// (optionally testing it), else drain one failed creation, else enqueue
// Create commands for the deficit and wait.
//
// Checkout has no internal timeout; it waits indefinitely unless ctx is
// cancelled. Callers wanting a deadline should pass a context with one.
func (p *Pool[C]) Checkout(ctx context.Context) (*Lease[C], error) {
	start := time.Now()

	stopWatch := p.watchCancel(ctx)
	defer stopWatch()

	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			p.recorder.IncCheckout("closed")
			return nil, ErrClosed
		}

		if conn, ok := p.st.popIdle(); ok {
			if p.cfg.TestOnCheckout {
				p.mu.Unlock()
				valid := p.mgr.IsValid(ctx, conn)
				p.mu.Lock()
				if !valid {
					p.st.total--
					p.publishLocked()
					continue
				}
			}
			p.publishLocked()
			p.mu.Unlock()
			p.recorder.IncCheckout("hit")
			p.recorder.ObserveWait(time.Since(start).Seconds())
			return p.newLease(conn), nil
		}

		if err, ok := p.st.popFailed(); ok {
			p.publishLocked()
			p.mu.Unlock()
			p.recorder.IncCheckout("failed")
			p.recorder.ObserveWait(time.Since(start).Seconds())
			return nil, &CreationFailedError{Err: err}
		}

		if err := ctx.Err(); err != nil {
			p.mu.Unlock()
			p.recorder.IncCheckout("cancelled")
			return nil, err
		}

		deficit := min(p.cfg.MaxSize-p.st.total, p.cfg.AcquireIncrement)
		for i := 0; i < deficit; i++ {
			p.st.total++
			p.cmds <- command[C]{kind: cmdCreate}
		}

		p.waiters++
		p.publishLocked()
		p.cond.Wait()
		p.waiters--

		select {
		case <-ctx.Done():
			p.publishLocked()
			p.mu.Unlock()
			p.recorder.IncCheckout("cancelled")
			return nil, ctx.Err()
		default:
		}
	}
}

// watchCancel spawns a goroutine that broadcasts on the pool's condition
// variable once ctx is cancelled, so a Checkout waiter parked in
// cond.Wait can notice the cancellation and re-check ctx.Done(). This is
// how cancellation by the caller's surrounding context reaches a waiter
// in Go: sync.Cond has no context-aware Wait, so every waiter gets its
// own watcher tied to the context it was called with.
func (p *Pool[C]) watchCancel(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// release returns conn to the idle queue and wakes one waiter. It is
// called by Lease.Release (explicit) and by the Lease finalizer
// (leak safety net).
func (p *Pool[C]) release(conn C) {
	p.mu.Lock()
	p.st.pushIdle(conn)
	p.publishLocked()
	p.mu.Unlock()
	p.cond.Signal()
}

// Shutdown closes the command channel, draining helper workers, and
// marks the pool closed. Outstanding Leases remain valid and may still
// Release back into state; no new connections will be created. Waiters
// blocked in Checkout are woken with ErrClosed.
func (p *Pool[C]) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.cmds)
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()

	p.logger.Printf("[pool] %s: shut down", p.name)
	return nil
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Idle    int
	Total   int
	Waiters int
	Max     int
}

// Stats returns the current pool occupancy.
func (p *Pool[C]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Idle:    len(p.st.idle),
		Total:   p.st.total,
		Waiters: p.waiters,
		Max:     p.cfg.MaxSize,
	}
}

// publishLocked reports the current occupancy to the recorder. Callers
// must hold p.mu.
func (p *Pool[C]) publishLocked() {
	p.recorder.SetIdle(len(p.st.idle))
	p.recorder.SetTotal(p.st.total)
	p.recorder.SetWaiters(p.waiters)
}
