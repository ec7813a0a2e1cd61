package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// fakeConn stands in for an expensive-to-create resource in tests.
type fakeConn struct {
	id int
}

// okManager always succeeds at Create and always reports valid.
type okManager struct {
	nextID atomic.Int64
}

func (m *okManager) Create(ctx context.Context) (*fakeConn, error) {
	return &fakeConn{id: int(m.nextID.Add(1))}, nil
}

func (m *okManager) IsValid(ctx context.Context, conn *fakeConn) bool {
	return true
}

// nthFailManager succeeds the first n calls to Create, then fails every
// call after that.
type nthFailManager struct {
	mu     sync.Mutex
	remain int
	nextID int
}

func newNthFailManager(n int) *nthFailManager {
	return &nthFailManager{remain: n}
}

var errCreateFailed = errors.New("fake: connect failed")

func (m *nthFailManager) Create(ctx context.Context) (*fakeConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.remain <= 0 {
		return nil, errCreateFailed
	}
	m.remain--
	m.nextID++
	return &fakeConn{id: m.nextID}, nil
}

func (m *nthFailManager) IsValid(ctx context.Context, conn *fakeConn) bool {
	return true
}

// allowMore unblocks n additional successful Create calls. Used to flip
// a manager from failing to succeeding mid-test.
func (m *nthFailManager) allowMore(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remain += n
}

// poisonManager creates connections successfully but reports every
// connection created before poison() was called as invalid, for
// exercising the poison pool edge case: connections created
// afterward (i.e. by the helper worker reacting to the drained idle
// queue) are valid, so Checkout must recover rather than spin forever.
type poisonManager struct {
	nextID    atomic.Int64
	threshold atomic.Int64
}

func (m *poisonManager) Create(ctx context.Context) (*fakeConn, error) {
	return &fakeConn{id: int(m.nextID.Add(1))}, nil
}

func (m *poisonManager) IsValid(ctx context.Context, conn *fakeConn) bool {
	return int64(conn.id) > m.threshold.Load()
}

func (m *poisonManager) poison() {
	m.threshold.Store(m.nextID.Load())
}
