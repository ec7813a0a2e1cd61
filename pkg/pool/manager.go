package pool

import "context"

// Manager is the resource-specific driver a Pool delegates all
// connection-producing work to. It is the single capability interface
// the CORE depends on — no particular wire protocol, transport, or
// database is assumed.
//
// Implementations must be safe to call from many goroutines
// concurrently; the Pool never serializes calls into a Manager.
type Manager[C any] interface {
	// Create attempts to establish a new connection. It may block on
	// network I/O and is only ever called from helper workers, never
	// while a state lock is held.
	Create(ctx context.Context) (C, error)

	// IsValid reports whether conn is still usable. It must be cheap
	// relative to Create. It is called inline during Checkout when
	// Config.TestOnCheckout is set, and may also be invoked by a
	// helper worker executing a Test command. A connection for which
	// IsValid returns false is dropped and decremented from the
	// pool's total.
	IsValid(ctx context.Context, conn C) bool
}
