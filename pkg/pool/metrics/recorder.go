// Package metrics defines the observability hook a Pool reports into.
// The core pool package depends only on the Recorder interface, never on
// a concrete metrics backend — Prometheus wiring lives in
// pkg/pool/metrics/prometheus.go and is opt-in via a constructor option.
package metrics

// Recorder receives pool lifecycle events. Implementations must be safe
// for concurrent use; a Pool calls into its Recorder from checkout
// callers and from helper workers without additional synchronization.
type Recorder interface {
	// SetIdle reports the current size of the idle queue.
	SetIdle(n int)
	// SetTotal reports the current total connection count.
	SetTotal(n int)
	// SetWaiters reports the number of goroutines currently blocked in
	// Checkout.
	SetWaiters(n int)
	// IncCheckout counts one Checkout outcome ("hit", "failed",
	// "cancelled", "closed").
	IncCheckout(outcome string)
	// ObserveWait records the time from the start of a Checkout call to
	// the moment it handed out a connection or a creation error, in
	// seconds. It is not recorded for cancelled or closed outcomes.
	ObserveWait(seconds float64)
	// IncCreateError counts one failed Manager.Create call.
	IncCreateError()
}

// Noop is a Recorder that discards every event. It is the default used
// by New when no WithRecorder option is supplied, so instrumentation is
// always optional.
type Noop struct{}

func (Noop) SetIdle(int)         {}
func (Noop) SetTotal(int)        {}
func (Noop) SetWaiters(int)      {}
func (Noop) IncCheckout(string)  {}
func (Noop) ObserveWait(float64) {}
func (Noop) IncCreateError()     {}

var _ Recorder = Noop{}
