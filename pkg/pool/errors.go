package pool

import "fmt"

// InvalidConfigError is returned by New when the supplied Config fails
// validation. Construction never proceeds past this point — no
// connections are created.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("pool: invalid config: %s", e.Reason)
}

// CreationFailedError wraps a Manager.Create failure. It is returned by
// New when eager initial-size population fails, and by Checkout when a
// helper worker's Create failed and this waiter drew the resulting
// error from the failed queue.
type CreationFailedError struct {
	Err error
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("pool: connection creation failed: %v", e.Err)
}

func (e *CreationFailedError) Unwrap() error {
	return e.Err
}
