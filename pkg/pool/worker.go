package pool

import "context"

// cmdKind distinguishes the two commands a helper worker can execute.
type cmdKind int

const (
	// cmdCreate calls Manager.Create and publishes the result.
	cmdCreate cmdKind = iota
	// cmdTest calls Manager.IsValid against an already-idle connection.
	// Reserved for future background validation; Checkout tests inline
	// when Config.TestOnCheckout is set.
	cmdTest
)

// command is one unit of work handed to a helper worker. The command
// channel is a natural Go MPMC queue: many callers may send (enqueueing
// Create commands from Checkout) and many workers may receive, with no
// extra wrapper needed.
type command[C any] struct {
	kind cmdKind
	conn C // populated for cmdTest
}

// helperLoop is the body of one background worker. Workers consume
// commands from the shared channel and execute manager calls entirely
// outside the state lock, so a stalled driver cannot block checkouts of
// already-idle connections. The lock is acquired only for the final
// publication step.
func (p *Pool[C]) helperLoop() {
	defer p.wg.Done()
	for cmd := range p.cmds {
		switch cmd.kind {
		case cmdCreate:
			p.runCreate()
		case cmdTest:
			p.runTest(cmd.conn)
		}
	}
}

// runCreate calls Manager.Create and publishes either a new idle
// connection or a creation error, then wakes one waiter.
func (p *Pool[C]) runCreate() {
	ctx := context.Background()
	conn, err := p.mgr.Create(ctx)

	p.mu.Lock()
	if err != nil {
		p.st.pushFailed(err)
		p.st.total--
		p.recorder.IncCreateError()
	} else {
		p.st.pushIdle(conn)
	}
	p.publishLocked()
	p.mu.Unlock()

	p.cond.Signal()
}

// runTest calls Manager.IsValid against conn outside the lock and
// either returns it to idle or drops it, decrementing total.
func (p *Pool[C]) runTest(conn C) {
	ctx := context.Background()
	valid := p.mgr.IsValid(ctx, conn)

	p.mu.Lock()
	if valid {
		p.st.pushIdle(conn)
	} else {
		p.st.total--
	}
	p.publishLocked()
	p.mu.Unlock()

	if valid {
		p.cond.Signal()
	}
}
