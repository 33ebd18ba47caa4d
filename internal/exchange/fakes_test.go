package exchange

import (
	"sync"
	"testing"
	"time"

	"corvusdb/internal/cluster"
	"corvusdb/internal/fabric"
)

type sentMessage struct {
	dest cluster.NodeID
	msg  *fabric.Message
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeTransport) Send(dest cluster.NodeID, msg *fabric.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{dest: dest, msg: cloneTestMessage(msg)})
	return nil
}

func (f *fakeTransport) SendList(dests []cluster.NodeID, msg *fabric.Message) error {
	for _, d := range dests {
		f.Send(d, msg)
	}
	return nil
}

func (f *fakeTransport) take() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

func (f *fakeTransport) countTo(dest cluster.NodeID, msgType uint32) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.dest == dest && s.msg.Type == msgType {
			n++
		}
	}
	return n
}

func cloneTestMessage(msg *fabric.Message) *fabric.Message {
	out := *msg
	if msg.Payload != nil {
		out.Payload = append([]byte(nil), msg.Payload...)
	}
	return &out
}

type fakeBalance struct {
	mu           sync.Mutex
	disallowed   int
	synchronized int
	balanced     int
	reverted     int
}

func (f *fakeBalance) DisallowMigrations() {
	f.mu.Lock()
	f.disallowed++
	f.mu.Unlock()
}

func (f *fakeBalance) SynchronizeMigrations() {
	f.mu.Lock()
	f.synchronized++
	f.mu.Unlock()
}

func (f *fakeBalance) Balance() {
	f.mu.Lock()
	f.balanced++
	f.mu.Unlock()
}

func (f *fakeBalance) RevertToOrphan() {
	f.mu.Lock()
	f.reverted++
	f.mu.Unlock()
}

func (f *fakeBalance) reverts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reverted
}

func (f *fakeBalance) balances() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanced
}

type fakeHeartbeat struct {
	interval time.Duration
}

func (f *fakeHeartbeat) TxInterval() time.Duration { return f.interval }

type fakeClustering struct {
	quantum time.Duration
}

func (f *fakeClustering) QuantumInterval() time.Duration { return f.quantum }

// fakeClock is a controllable clock shared by test exchanges.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testNode struct {
	ex        *Exchange
	transport *fakeTransport
	balance   *fakeBalance
	clock     *fakeClock
}

// newTestNode builds a runnable exchange around fakes, with namespace
// "ns1" when no names are given so self payloads carry at least one
// namespace entry. All partitions start out null.
func newTestNode(t *testing.T, self cluster.NodeID, names ...string) *testNode {
	t.Helper()

	if len(names) == 0 {
		names = []string{"ns1"}
	}

	reg := newTestRegistry(t, names...)
	tr := &fakeTransport{}
	bal := &fakeBalance{}
	clock := newFakeClock()

	ex := New(Params{
		Self:       self,
		Registry:   reg,
		Transport:  tr,
		Balance:    bal,
		Heartbeat:  &fakeHeartbeat{interval: 150 * time.Millisecond},
		Clustering: &fakeClustering{quantum: time.Second},
	}, nil)
	ex.now = clock.now

	// Mark running without spawning the timer worker; tests drive timer
	// events explicitly.
	ex.mu.Lock()
	ex.sysState = sysRunning
	ex.mu.Unlock()

	return &testNode{ex: ex, transport: tr, balance: bal, clock: clock}
}

func newTestExchange(t *testing.T, self cluster.NodeID) *Exchange {
	t.Helper()
	return newTestNode(t, self).ex
}

func (n *testNode) state() State {
	n.ex.mu.Lock()
	defer n.ex.mu.Unlock()
	return n.ex.state
}
