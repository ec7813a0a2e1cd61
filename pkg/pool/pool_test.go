package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(initial, max int) Config {
	return Config{
		InitialSize:      initial,
		MaxSize:          max,
		AcquireIncrement: 1,
		HelperWorkers:    2,
	}
}

// initial population succeeds and a round trip through Checkout/Release works.
func TestInitialSizeOKAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, testConfig(5, 5), &okManager{})
	require.NoError(t, err)
	defer p.Shutdown()

	require.Equal(t, 5, p.Stats().Total)

	for i := 0; i < 5; i++ {
		lease, err := p.Checkout(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, p.Stats().Total)
		lease.Release()
		assert.Equal(t, 5, p.Stats().Total)
	}
}

// initial population fails fast and discards what it already built.
func TestInitialSizeCreationFailed(t *testing.T) {
	ctx := context.Background()
	mgr := newNthFailManager(4)
	_, err := New(ctx, testConfig(5, 5), mgr)
	require.Error(t, err)

	var cfErr *CreationFailedError
	require.ErrorAs(t, err, &cfErr)
}

// a Create failure is delivered to the next waiter, then later Creates succeed.
func TestAcquireFailThenSucceed(t *testing.T) {
	ctx := context.Background()
	mgr := newNthFailManager(0)
	p, err := New(ctx, testConfig(0, 1), mgr)
	require.NoError(t, err)
	defer p.Shutdown()

	_, err = p.Checkout(ctx)
	require.Error(t, err)
	var cfErr *CreationFailedError
	require.ErrorAs(t, err, &cfErr)

	mgr.allowMore(1)
	lease2, err := p.Checkout(ctx)
	require.NoError(t, err)
	firstID := lease2.Conn().id
	lease2.Release()

	lease3, err := p.Checkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstID, lease3.Conn().id, "the same connection should be recycled")
	lease3.Release()
}

// repeated Checkout/Release cycles never block once the pool has warmed up.
func TestAcquireReleaseSequenceNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := New(ctx, testConfig(2, 2), &okManager{})
	require.NoError(t, err)
	defer p.Shutdown()

	c1, err := p.Checkout(ctx)
	require.NoError(t, err)
	c2, err := p.Checkout(ctx)
	require.NoError(t, err)

	c1.Release()

	c3, err := p.Checkout(ctx)
	require.NoError(t, err)

	c2.Release()
	c3.Release()
}

// Saturation law: with max_size = N and N+1 concurrent callers never
// releasing, exactly N succeed and the (N+1)th blocks.
func TestSaturationBlocksExtraWaiter(t *testing.T) {
	const n = 3
	ctx := context.Background()
	p, err := New(ctx, testConfig(0, n), &okManager{})
	require.NoError(t, err)
	defer p.Shutdown()

	var wg sync.WaitGroup
	leases := make([]*Lease[*fakeConn], n)
	for i := 0; i < n; i++ {
		l, err := p.Checkout(ctx)
		require.NoError(t, err)
		leases[i] = l
	}

	blockedDone := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(blockedDone)
		_, _ = p.Checkout(ctx)
	}()

	require.Eventually(t, func() bool {
		return p.Stats().Waiters == 1
	}, time.Second, 5*time.Millisecond, "the (n+1)th caller should be blocked waiting")

	select {
	case <-blockedDone:
		t.Fatal("the (n+1)th checkout should still be blocked")
	case <-time.After(50 * time.Millisecond):
	}

	for _, l := range leases {
		l.Release()
	}
	wg.Wait()
}

// Poison pool edge case: if TestOnCheckout causes every
// idle connection to be discarded, the loop must still reach the
// Create-deficit step once idle is drained rather than spinning forever.
func TestPoisonPoolRecreatesAfterAllIdleInvalid(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mgr := &poisonManager{}
	cfg := testConfig(3, 3)
	cfg.TestOnCheckout = true
	p, err := New(ctx, cfg, mgr)
	require.NoError(t, err)
	defer p.Shutdown()

	mgr.poison()

	lease, err := p.Checkout(ctx)
	require.NoError(t, err, "checkout must recover by creating a fresh connection")
	lease.Release()
}

func TestDoubleReleasePanics(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, testConfig(1, 1), &okManager{})
	require.NoError(t, err)
	defer p.Shutdown()

	lease, err := p.Checkout(ctx)
	require.NoError(t, err)
	lease.Release()

	assert.Panics(t, func() { lease.Release() })
}

func TestCheckoutRespectsContextCancellation(t *testing.T) {
	p, err := New(context.Background(), testConfig(1, 1), &okManager{})
	require.NoError(t, err)
	defer p.Shutdown()

	// Drain the only connection so the next Checkout blocks.
	held, err := p.Checkout(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Checkout(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShutdownWakesWaitersWithErrClosed(t *testing.T) {
	p, err := New(context.Background(), testConfig(1, 1), &okManager{})
	require.NoError(t, err)

	held, err := p.Checkout(context.Background())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Checkout(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return p.Stats().Waiters == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Shutdown())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Shutdown")
	}

	// Outstanding leases may still release after shutdown.
	held.Release()
}
