package pool

import "fmt"

// Config captures the sizing and policy knobs of a Pool. It is a plain
// value object: construct it, override whichever fields matter, call
// Validate, and hand it to New.
type Config struct {
	// InitialSize is the number of connections established eagerly
	// during construction.
	InitialSize int

	// MaxSize is the hard upper bound on the total number of connections
	// the pool will ever own at once (idle + in-use + in-flight).
	MaxSize int

	// AcquireIncrement is how many Create commands are launched at once
	// when a waiter finds the pool empty.
	AcquireIncrement int

	// HelperWorkers is the number of background workers executing
	// Create/Test commands.
	HelperWorkers int

	// TestOnCheckout, when set, requires Manager.IsValid to succeed
	// before a checked-out connection is handed to a caller.
	TestOnCheckout bool
}

// DefaultConfig returns a Config with sensible defaults for every field.
// Callers typically start here and override individual knobs.
func DefaultConfig() Config {
	return Config{
		InitialSize:      0,
		MaxSize:          10,
		AcquireIncrement: 1,
		HelperWorkers:    1,
		TestOnCheckout:   false,
	}
}

// Validate checks the invariants listed in the Config documentation and
// returns a descriptive error when one is violated. It never mutates c.
func (c Config) Validate() error {
	if c.MaxSize == 0 {
		return fmt.Errorf("pool: max_size must be > 0")
	}
	if c.InitialSize > c.MaxSize {
		return fmt.Errorf("pool: initial_size (%d) > max_size (%d)", c.InitialSize, c.MaxSize)
	}
	if c.InitialSize < 0 {
		return fmt.Errorf("pool: initial_size must be >= 0, got %d", c.InitialSize)
	}
	if c.AcquireIncrement == 0 {
		return fmt.Errorf("pool: acquire_increment must be >= 1, got 0")
	}
	if c.AcquireIncrement < 0 {
		return fmt.Errorf("pool: acquire_increment must be >= 1, got %d", c.AcquireIncrement)
	}
	if c.HelperWorkers == 0 {
		return fmt.Errorf("pool: helper_workers must be >= 1, got 0")
	}
	if c.HelperWorkers < 0 {
		return fmt.Errorf("pool: helper_workers must be >= 1, got %d", c.HelperWorkers)
	}
	return nil
}
